// Package cli is the terminal front end of the portal: one command per
// form flow or dashboard action.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"citizen-portal/internal/application"
	"citizen-portal/internal/ports"
)

// Deps is everything the commands run against.
type Deps struct {
	Session  *application.SessionController
	Gateway  ports.Gateway
	Flows    *application.FormFlows
	Events   ports.EventSource
	Store    ports.StateStore
	Reporter *application.Reporter
	Logger   ports.Logger
	Out      io.Writer
	Now      func() time.Time
	Debounce time.Duration
}

type App struct {
	Deps
}

func New(deps Deps) *App {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Out == nil {
		deps.Out = os.Stdout
	}
	return &App{Deps: deps}
}

// reported wraps an error the Reporter has already shown.
type reported struct{ error }

func (r reported) Unwrap() error { return r.error }

// Reported reports whether err was already shown to the user.
func Reported(err error) bool {
	var r reported
	return errors.As(err, &r)
}

// fail shows err through the Reporter once.
func (a *App) fail(ctx context.Context, action string, err error) error {
	if err == nil || Reported(err) {
		return err
	}
	a.Reporter.Fail(ctx, action, err)
	return reported{err}
}

// shown marks a failure a view has already reported.
func shown(err error) error {
	if err == nil {
		return nil
	}
	return reported{err}
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.Out, format, args...)
}

// viewDeps builds dependencies for a dashboard. Live updates are only
// wired when the command watches.
func (a *App) viewDeps(live bool) application.ViewDeps {
	deps := application.ViewDeps{
		Gateway:  a.Gateway,
		Session:  a.Session,
		Reporter: a.Reporter,
		Logger:   a.Logger,
		Debounce: a.Debounce,
	}
	if live {
		deps.Events = a.Events
	}
	return deps
}

// openUpload opens a local file for upload under field.
func openUpload(field, path string) (ports.Upload, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return ports.Upload{}, nil, fmt.Errorf("open %s: %w", path, err)
	}
	return ports.Upload{Field: field, Filename: filepath.Base(path), Content: f}, f.Close, nil
}

// createOutput opens dest for a download. A directory gets name appended.
func createOutput(dest, name string) (*os.File, error) {
	if dest == "" {
		dest = "."
	}
	if fi, err := os.Stat(dest); err == nil && fi.IsDir() {
		dest = filepath.Join(dest, filepath.Base(name))
	}
	return os.Create(dest)
}

// Root builds the full command tree.
func (a *App) Root() *Command {
	return &Command{
		Name:    "portal",
		Summary: "Citizen services portal client.",
		out:     a.Out,
		Subcommands: []*Command{
			a.signupCommand(),
			a.loginCommand(),
			a.logoutCommand(),
			a.whoamiCommand(),
			a.otpCommand(),
			a.passwordCommand(),
			a.profileCommand(),
			a.servicesCommand(),
			a.quoteCommand(),
			a.applyCommand(),
			a.appsCommand(),
			a.confirmCommand(),
			a.correctCommand(),
			a.rejectCommand(),
			a.uploadPDFCommand(),
			a.certificateCommand(),
			a.setStatusCommand(),
			a.usersCommand(),
			a.userProfileCommand(),
			a.userDocCommand(),
			a.downloadAllCommand(),
			a.noticesCommand(),
			a.slidesCommand(),
			a.filesCommand(),
			a.signalCommand(),
		},
	}
}

func removeQuietly(path string) { _ = os.Remove(path) }
