package cli

import (
	"context"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"citizen-portal/internal/application"
	"citizen-portal/internal/domain"
	"citizen-portal/internal/ports"
)

func (a *App) profileCommand() *Command {
	var (
		form application.ProfileForm
		pic  string
		docs map[string]string
	)
	return &Command{
		Name:    "profile",
		Summary: "Your profile and documents.",
		Subcommands: []*Command{
			{
				Name:    "show",
				Summary: "Show your profile.",
				Run: func(ctx context.Context, _ []string) error {
					p, err := a.Flows.Profile(ctx)
					if err != nil {
						return a.fail(ctx, "load profile", err)
					}
					renderProfile(a.Out, p, a.Gateway.FileURL)
					return nil
				},
			},
			{
				Name:    "update",
				Summary: "Change profile fields or upload documents.",
				Flags: func() *pflag.FlagSet {
					fs := pflag.NewFlagSet("profile update", pflag.ContinueOnError)
					fs.StringVar(&form.Name, "name", "", "full name")
					fs.StringVar(&form.Gender, "gender", "", "male, female or other")
					fs.StringVar(&form.DOB, "dob", "", "date of birth (YYYY-MM-DD)")
					fs.StringVar(&pic, "picture", "", "profile picture to upload")
					fs.StringToStringVar(&docs, "doc", nil, "document to upload as field=path, e.g. domicile=./dom.pdf")
					return fs
				},
				Run: func(ctx context.Context, _ []string) error {
					files, closeAll, err := uploads(pic, docs)
					defer closeAll()
					if err != nil {
						return a.fail(ctx, "update profile", err)
					}
					p, err := a.Flows.UpdateProfile(ctx, form, files)
					if err != nil {
						return a.fail(ctx, "update profile", err)
					}
					a.Reporter.Succeed(ctx, "Profile updated successfully")
					renderProfile(a.Out, p, a.Gateway.FileURL)
					return nil
				},
			},
			{
				Name:    "delete-doc",
				Summary: "Remove one of your documents.",
				Usage:   "<field>",
				Run: exactArgs(1, "<field>", func(ctx context.Context, args []string) error {
					field := domain.DocumentField(args[0])
					if _, err := a.Flows.DeleteDocument(ctx, field); err != nil {
						return a.fail(ctx, "delete document", err)
					}
					a.Reporter.Succeed(ctx, field.Label()+" deleted successfully.")
					return nil
				}),
			},
		},
	}
}

// uploads opens the picture and documents named on the command line in a
// stable order. closeAll is always safe to call.
func uploads(pic string, docs map[string]string) ([]ports.Upload, func(), error) {
	var (
		files   []ports.Upload
		closers []func() error
	)
	closeAll := func() {
		for _, c := range closers {
			_ = c()
		}
	}
	add := func(field, path string) error {
		up, c, err := openUpload(field, path)
		if err != nil {
			return err
		}
		files = append(files, up)
		closers = append(closers, c)
		return nil
	}
	if pic != "" {
		if err := add(application.FieldProfilePic, pic); err != nil {
			return nil, closeAll, err
		}
	}
	fields := make([]string, 0, len(docs))
	for f := range docs {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		if err := add(f, docs[f]); err != nil {
			return nil, closeAll, err
		}
	}
	return files, closeAll, nil
}

func (a *App) usersCommand() *Command {
	return &Command{
		Name:    "users",
		Summary: "Manage user accounts.",
		Subcommands: []*Command{
			{
				Name:    "list",
				Summary: "List every user.",
				Run: func(ctx context.Context, _ []string) error {
					return a.withAdmin(ctx, func(d *application.AdminDashboard) error {
						renderUsers(a.Out, d.Data().Users)
						return nil
					})
				},
			},
			{
				Name:    "role",
				Summary: "Change a user's role.",
				Usage:   "<user-id> <user|operator|admin>",
				Run: exactArgs(2, "<user-id> <role>", func(ctx context.Context, args []string) error {
					return a.withAdmin(ctx, func(d *application.AdminDashboard) error {
						return d.ChangeRole(ctx, args[0], domain.Role(args[1]))
					})
				}),
			},
		},
	}
}

func (a *App) userProfileCommand() *Command {
	return &Command{
		Name:    "user-profile",
		Summary: "Show an applicant's profile.",
		Usage:   "<user-id>",
		Run: exactArgs(1, "<user-id>", func(ctx context.Context, args []string) error {
			return a.withOperator(ctx, func(p *application.OperatorPanel) error {
				prof, err := p.OpenProfile(ctx, args[0])
				if err != nil {
					return err
				}
				renderProfile(a.Out, prof, a.Gateway.FileURL)
				return nil
			})
		}),
	}
}

func (a *App) userDocCommand() *Command {
	return &Command{
		Name:    "user-doc",
		Summary: "Manage an applicant's documents.",
		Subcommands: []*Command{{
			Name:    "delete",
			Summary: "Delete one of an applicant's documents.",
			Usage:   "<user-id> <field>",
			Run: exactArgs(2, "<user-id> <field>", func(ctx context.Context, args []string) error {
				return a.withOperator(ctx, func(p *application.OperatorPanel) error {
					_, err := p.DeleteDocument(ctx, args[0], domain.DocumentField(args[1]))
					return err
				})
			}),
		}},
	}
}

func (a *App) downloadAllCommand() *Command {
	return &Command{
		Name:    "download-all",
		Summary: "Ask the server to bundle an applicant's documents.",
		Usage:   "<user-id>",
		Run: exactArgs(1, "<user-id>", func(ctx context.Context, args []string) error {
			return a.withOperator(ctx, func(p *application.OperatorPanel) error {
				_, err := p.DownloadAllDocuments(ctx, args[0])
				return err
			})
		}),
	}
}

func (a *App) filesCommand() *Command {
	var out string
	return &Command{
		Name:    "files",
		Summary: "Server-stored files.",
		Subcommands: []*Command{{
			Name:    "get",
			Summary: "Download a stored file.",
			Usage:   "<filename>",
			Flags: func() *pflag.FlagSet {
				fs := pflag.NewFlagSet("files get", pflag.ContinueOnError)
				fs.StringVarP(&out, "output", "o", ".", "file or directory to write")
				return fs
			},
			Run: exactArgs(1, "<filename>", func(ctx context.Context, args []string) error {
				f, err := createOutput(out, args[0])
				if err != nil {
					return a.fail(ctx, "download file", err)
				}
				defer f.Close()
				n, err := a.Gateway.Download(ctx, args[0], f)
				if err != nil {
					_ = f.Close()
					removeQuietly(f.Name())
					return a.fail(ctx, "download file", err)
				}
				a.printf("%s saved to %s (%s)\n", args[0], f.Name(), humanize.IBytes(uint64(n)))
				return nil
			}),
		}},
	}
}
