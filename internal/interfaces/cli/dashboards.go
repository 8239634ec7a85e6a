package cli

import (
	"context"

	"citizen-portal/internal/application"
)

// The helpers below mount a dashboard without live updates, run one action
// against it and close it. Failures were already reported by the view.

func (a *App) withUser(ctx context.Context, fn func(*application.UserDashboard) error) error {
	d := application.NewUserDashboard(a.viewDeps(false))
	if err := d.Mount(ctx); err != nil {
		return shown(err)
	}
	defer d.Close()
	return shown(fn(d))
}

func (a *App) withOperator(ctx context.Context, fn func(*application.OperatorPanel) error) error {
	p := application.NewOperatorPanel(a.viewDeps(false))
	if err := p.Mount(ctx); err != nil {
		return shown(err)
	}
	defer p.Close()
	return shown(fn(p))
}

func (a *App) withAdmin(ctx context.Context, fn func(*application.AdminDashboard) error) error {
	d := application.NewAdminDashboard(a.viewDeps(false))
	if err := d.Mount(ctx); err != nil {
		return shown(err)
	}
	defer d.Close()
	return shown(fn(d))
}
