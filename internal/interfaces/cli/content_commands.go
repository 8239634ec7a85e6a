package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"citizen-portal/internal/application"
	"citizen-portal/internal/domain"
)

func (a *App) servicesCommand() *Command {
	var (
		name string
		desc string
		fees map[string]string
	)
	flags := func(cmd string) func() *pflag.FlagSet {
		return func() *pflag.FlagSet {
			fs := pflag.NewFlagSet(cmd, pflag.ContinueOnError)
			fs.StringVar(&name, "name", "", "service name")
			fs.StringVar(&desc, "description", "", "short description")
			fs.StringToStringVar(&fees, "fee", nil, "fee per category, e.g. SC=0,OBC=25,General=50")
			return fs
		}
	}
	save := func(ctx context.Context, id string) error {
		parsed, err := parseFees(fees)
		if err != nil {
			return a.fail(ctx, "save service", err)
		}
		svc := domain.Service{ID: id, Name: name, Description: desc, Fees: parsed}
		return a.withAdmin(ctx, func(d *application.AdminDashboard) error {
			return d.SaveService(ctx, svc)
		})
	}
	return &Command{
		Name:    "services",
		Summary: "Services citizens can apply for.",
		Subcommands: []*Command{
			{
				Name:    "list",
				Summary: "List services with their fees.",
				Run: func(ctx context.Context, _ []string) error {
					services, err := a.Gateway.ListServices(ctx)
					if err != nil {
						return a.fail(ctx, "load services", err)
					}
					renderServices(a.Out, services)
					return nil
				},
			},
			{
				Name:    "add",
				Summary: "Create a service.",
				Flags:   flags("services add"),
				Run: func(ctx context.Context, _ []string) error {
					return save(ctx, "")
				},
			},
			{
				Name:    "update",
				Summary: "Replace a service's name, description and fees.",
				Usage:   "<service-id>",
				Flags:   flags("services update"),
				Run: exactArgs(1, "<service-id>", func(ctx context.Context, args []string) error {
					return save(ctx, args[0])
				}),
			},
			{
				Name:    "delete",
				Summary: "Delete a service.",
				Usage:   "<service-id>",
				Run: exactArgs(1, "<service-id>", func(ctx context.Context, args []string) error {
					return a.withAdmin(ctx, func(d *application.AdminDashboard) error {
						return d.DeleteService(ctx, args[0])
					})
				}),
			},
		},
	}
}

// parseFees reads category=amount pairs. Category names are matched to the
// fee table's spelling where they differ only in case.
func parseFees(raw map[string]string) (map[string]float64, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(raw))
	for cat, v := range raw {
		amount, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || amount < 0 {
			return nil, domain.ValidationErrors{"fees": fmt.Sprintf("Invalid fee %q for %s", v, cat)}
		}
		out[canonicalCategory(cat)] = amount
	}
	return out, nil
}

func canonicalCategory(cat string) string {
	cat = strings.TrimSpace(cat)
	for _, known := range domain.FeeCategories {
		if strings.EqualFold(known, cat) {
			return known
		}
	}
	return cat
}

func (a *App) noticesCommand() *Command {
	return &Command{
		Name:    "notices",
		Summary: "Public notices.",
		Subcommands: []*Command{
			{
				Name:    "list",
				Summary: "List notices.",
				Run: func(ctx context.Context, _ []string) error {
					notices, err := a.Gateway.ListNotices(ctx)
					if err != nil {
						return a.fail(ctx, "load notices", err)
					}
					renderNotices(a.Out, notices, a.Now())
					return nil
				},
			},
			{
				Name:    "add",
				Summary: "Post a notice.",
				Usage:   "<title>",
				Run: exactArgs(1, "<title>", func(ctx context.Context, args []string) error {
					return a.withAdmin(ctx, func(d *application.AdminDashboard) error {
						return d.AddNotice(ctx, args[0])
					})
				}),
			},
			{
				Name:    "edit",
				Summary: "Change a notice's title.",
				Usage:   "<notice-id> <title>",
				Run: exactArgs(2, "<notice-id> <title>", func(ctx context.Context, args []string) error {
					return a.withAdmin(ctx, func(d *application.AdminDashboard) error {
						return d.EditNotice(ctx, args[0], args[1])
					})
				}),
			},
			{
				Name:    "delete",
				Summary: "Remove a notice.",
				Usage:   "<notice-id>",
				Run: exactArgs(1, "<notice-id>", func(ctx context.Context, args []string) error {
					return a.withAdmin(ctx, func(d *application.AdminDashboard) error {
						return d.DeleteNotice(ctx, args[0])
					})
				}),
			},
		},
	}
}

func (a *App) slidesCommand() *Command {
	var title, subtitle string
	return &Command{
		Name:    "slides",
		Summary: "Home page hero banners.",
		Subcommands: []*Command{
			{
				Name:    "list",
				Summary: "List hero banners.",
				Run: func(ctx context.Context, _ []string) error {
					slides, err := a.Gateway.ListHeroSlides(ctx)
					if err != nil {
						return a.fail(ctx, "load hero banners", err)
					}
					renderSlides(a.Out, slides, a.Gateway.FileURL)
					return nil
				},
			},
			{
				Name:    "add",
				Summary: "Upload a hero banner.",
				Usage:   "<image>",
				Flags: func() *pflag.FlagSet {
					fs := pflag.NewFlagSet("slides add", pflag.ContinueOnError)
					fs.StringVar(&title, "title", "", "banner title")
					fs.StringVar(&subtitle, "subtitle", "", "banner subtitle")
					return fs
				},
				Run: exactArgs(1, "<image>", func(ctx context.Context, args []string) error {
					up, closeFn, err := openUpload("image", args[0])
					if err != nil {
						return a.fail(ctx, "upload hero banner", err)
					}
					defer closeFn()
					return a.withAdmin(ctx, func(d *application.AdminDashboard) error {
						return d.AddHeroSlide(ctx, title, subtitle, up.Filename, up.Content)
					})
				}),
			},
			{
				Name:    "delete",
				Summary: "Remove a hero banner.",
				Usage:   "<slide-id>",
				Run: exactArgs(1, "<slide-id>", func(ctx context.Context, args []string) error {
					return a.withAdmin(ctx, func(d *application.AdminDashboard) error {
						return d.DeleteHeroSlide(ctx, args[0])
					})
				}),
			},
		},
	}
}
