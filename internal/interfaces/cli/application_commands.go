package cli

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"citizen-portal/internal/application"
	"citizen-portal/internal/domain"
	"citizen-portal/internal/infrastructure/live"
)

func (a *App) quoteCommand() *Command {
	return &Command{
		Name:    "quote",
		Summary: "Show the fee you would pay for a service.",
		Usage:   "<service-id>",
		Run: exactArgs(1, "<service-id>", func(ctx context.Context, args []string) error {
			q, err := a.Flows.QuoteFee(ctx, args[0])
			if err != nil {
				return a.fail(ctx, "load fee", err)
			}
			a.printf("%s: %s (%s)\n", q.Service.Name, formatFee(q.Fee), q.Caste)
			return nil
		}),
	}
}

func (a *App) applyCommand() *Command {
	return &Command{
		Name:    "apply",
		Summary: "Apply for a service.",
		Usage:   "<service-id>",
		Run: exactArgs(1, "<service-id>", func(ctx context.Context, args []string) error {
			app, err := a.Flows.Submit(ctx, args[0])
			if err != nil {
				return a.fail(ctx, "submit application", err)
			}
			a.Reporter.Succeed(ctx, "Application submitted successfully!")
			a.printf("%s\n", app.ID)
			return nil
		}),
	}
}

func (a *App) appsCommand() *Command {
	var (
		status string
		search string
		watch  bool
	)
	return &Command{
		Name:    "apps",
		Summary: "List applications on your dashboard.",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("apps", pflag.ContinueOnError)
			fs.StringVar(&status, "status", domain.FilterAll, "only show this status")
			fs.StringVar(&search, "search", "", "match applicant name or mobile")
			fs.BoolVarP(&watch, "watch", "w", false, "keep the list open and redraw on every change")
			return fs
		},
		Run: func(ctx context.Context, _ []string) error {
			if status != domain.FilterAll {
				st, ok := domain.ParseStatus(status)
				if !ok {
					return usageError("unknown status %q", status)
				}
				status = string(st)
			}
			sess, err := a.Session.Require()
			if err != nil {
				return a.fail(ctx, "load applications", err)
			}
			return a.showApplications(ctx, sess.Role, status, search, watch)
		},
	}
}

// dashboard is the role-specific view behind "apps".
type dashboard interface {
	Mount(ctx context.Context) error
	Close() error
	Wait()
}

// showApplications mounts the dashboard for role and draws its list. With
// watch it stays mounted, redrawing after every applied refetch, until ctx
// ends.
func (a *App) showApplications(ctx context.Context, role domain.Role, status, search string, watch bool) error {
	deps := a.viewDeps(watch)
	var (
		view dashboard
		list func() ([]domain.Application, map[string]int)
	)
	switch role {
	case domain.RoleAdmin:
		d := application.NewAdminDashboard(deps)
		d.OnChange(func(application.AdminData) { a.drawApplications(list) })
		view = d
		list = func() ([]domain.Application, map[string]int) {
			return application.Search(d.Applications(status), search), d.Counts()
		}
	case domain.RoleOperator:
		p := application.NewOperatorPanel(deps)
		p.OnChange(func([]domain.Application) { a.drawApplications(list) })
		view = p
		list = func() ([]domain.Application, map[string]int) {
			return p.Applications(status, search), p.Counts()
		}
	default:
		d := application.NewUserDashboard(deps)
		d.OnChange(func([]domain.Application) { a.drawApplications(list) })
		view = d
		list = func() ([]domain.Application, map[string]int) {
			apps := d.Applications()
			return application.Search(application.FilterByStatus(apps, status), search), application.CountByStatus(apps)
		}
	}
	if err := view.Mount(ctx); err != nil {
		return shown(err)
	}
	defer view.Close()
	if !watch {
		return nil
	}
	<-ctx.Done()
	view.Wait()
	return nil
}

func (a *App) drawApplications(list func() ([]domain.Application, map[string]int)) {
	if list == nil {
		return
	}
	apps, counts := list()
	renderCounts(a.Out, counts)
	renderApplications(a.Out, apps, a.Now())
}

func (a *App) confirmCommand() *Command {
	return &Command{
		Name:    "confirm",
		Summary: "Confirm the form the operator prepared.",
		Usage:   "<application-id>",
		Run: exactArgs(1, "<application-id>", func(ctx context.Context, args []string) error {
			return a.withUser(ctx, func(d *application.UserDashboard) error {
				return d.Confirm(ctx, args[0])
			})
		}),
	}
}

func (a *App) correctCommand() *Command {
	var comment string
	return &Command{
		Name:    "correct",
		Summary: "Send the form back to the operator with a correction.",
		Usage:   "<application-id>",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("correct", pflag.ContinueOnError)
			fs.StringVarP(&comment, "comment", "m", "", "what needs to change")
			return fs
		},
		Run: exactArgs(1, "<application-id>", func(ctx context.Context, args []string) error {
			return a.withUser(ctx, func(d *application.UserDashboard) error {
				return d.SubmitCorrection(ctx, args[0], comment)
			})
		}),
	}
}

func (a *App) rejectCommand() *Command {
	var reason string
	return &Command{
		Name:    "reject",
		Summary: "Reject an application.",
		Usage:   "<application-id>",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("reject", pflag.ContinueOnError)
			fs.StringVarP(&reason, "reason", "m", "", "reason shown to the applicant")
			return fs
		},
		Run: exactArgs(1, "<application-id>", func(ctx context.Context, args []string) error {
			return a.withOperator(ctx, func(p *application.OperatorPanel) error {
				return p.Reject(ctx, args[0], reason)
			})
		}),
	}
}

func (a *App) uploadPDFCommand() *Command {
	return &Command{
		Name:    "upload-pdf",
		Summary: "Attach the filled form PDF to an application.",
		Usage:   "<application-id> <file.pdf>",
		Run: exactArgs(2, "<application-id> <file.pdf>", func(ctx context.Context, args []string) error {
			up, closeFn, err := openUpload("formPdf", args[1])
			if err != nil {
				return a.fail(ctx, "upload form PDF", err)
			}
			defer closeFn()
			return a.withOperator(ctx, func(p *application.OperatorPanel) error {
				return p.UploadFormPDF(ctx, args[0], up.Filename, up.Content)
			})
		}),
	}
}

func (a *App) certificateCommand() *Command {
	var out string
	return &Command{
		Name:    "certificate",
		Summary: "Issue or fetch certificates.",
		Subcommands: []*Command{
			{
				Name:    "upload",
				Summary: "Issue the certificate for an application.",
				Usage:   "<application-id> <file.pdf>",
				Run: exactArgs(2, "<application-id> <file.pdf>", func(ctx context.Context, args []string) error {
					up, closeFn, err := openUpload("certificate", args[1])
					if err != nil {
						return a.fail(ctx, "upload certificate", err)
					}
					defer closeFn()
					return a.withAdmin(ctx, func(d *application.AdminDashboard) error {
						return d.UploadCertificate(ctx, args[0], up.Filename, up.Content)
					})
				}),
			},
			{
				Name:    "download",
				Summary: "Save the certificate of a completed application.",
				Usage:   "<application-id>",
				Flags: func() *pflag.FlagSet {
					fs := pflag.NewFlagSet("certificate download", pflag.ContinueOnError)
					fs.StringVarP(&out, "output", "o", ".", "file or directory to write")
					return fs
				},
				Run: exactArgs(1, "<application-id>", func(ctx context.Context, args []string) error {
					return a.withUser(ctx, func(d *application.UserDashboard) error {
						f, err := createOutput(out, "certificate-"+args[0]+".pdf")
						if err != nil {
							return a.fail(ctx, "download certificate", err)
						}
						defer f.Close()
						name, n, err := d.DownloadCertificate(ctx, args[0], f)
						if err != nil {
							removeQuietly(f.Name())
							return err
						}
						a.printf("%s saved to %s (%s)\n", name, f.Name(), humanize.IBytes(uint64(n)))
						return nil
					})
				}),
			},
		},
	}
}

func (a *App) setStatusCommand() *Command {
	return &Command{
		Name:    "set-status",
		Summary: "Move an application to any status.",
		Usage:   "<application-id> <status>",
		Run: exactArgs(2, "<application-id> <status>", func(ctx context.Context, args []string) error {
			return a.withAdmin(ctx, func(d *application.AdminDashboard) error {
				return d.SetStatus(ctx, args[0], args[1])
			})
		}),
	}
}

func (a *App) signalCommand() *Command {
	return &Command{
		Name:    "signal",
		Summary: "Cross-process signals.",
		Subcommands: []*Command{{
			Name:    "refresh",
			Summary: "Ask open operator panels to refetch.",
			Run: func(ctx context.Context, _ []string) error {
				if err := live.RaiseRefreshSignal(ctx, a.Store); err != nil {
					return a.fail(ctx, "raise refresh signal", err)
				}
				a.Reporter.Succeed(ctx, fmt.Sprintf("Refresh requested under %q", application.EventRefreshApplications))
				return nil
			},
		}},
	}
}
