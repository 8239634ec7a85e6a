package application

import (
	"context"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"

	"citizen-portal/internal/domain"
	"citizen-portal/internal/ports"
)

// AdminData is everything the admin dashboard shows.
type AdminData struct {
	Applications []domain.Application
	Users        []domain.UserSummary
	Services     []domain.Service
	Notices      []domain.Notice
	Slides       []domain.HeroSlide
}

// AdminDashboard manages applications, users and reference data.
type AdminDashboard struct {
	*view[AdminData]
}

func NewAdminDashboard(deps ViewDeps) *AdminDashboard {
	return &AdminDashboard{view: newView(deps, "load dashboard", loadAdminData(deps.Gateway), AdminEvents, domain.RoleAdmin)}
}

// loadAdminData fetches the five collections in parallel. The first
// failure cancels the rest.
func loadAdminData(gw ports.Gateway) func(context.Context) (AdminData, error) {
	return func(ctx context.Context) (AdminData, error) {
		var data AdminData
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			apps, err := gw.ListApplications(ctx)
			data.Applications = newestFirst(apps)
			return err
		})
		g.Go(func() error {
			users, err := gw.ListUsers(ctx)
			data.Users = users
			return err
		})
		g.Go(func() error {
			services, err := gw.ListServices(ctx)
			data.Services = services
			return err
		})
		g.Go(func() error {
			notices, err := gw.ListNotices(ctx)
			data.Notices = notices
			return err
		})
		g.Go(func() error {
			slides, err := gw.ListHeroSlides(ctx)
			data.Slides = slides
			return err
		})
		if err := g.Wait(); err != nil {
			return AdminData{}, err
		}
		return data, nil
	}
}

func (d *AdminDashboard) Mount(ctx context.Context) error { return d.mount(ctx) }

func (d *AdminDashboard) Close() error { return d.close() }

func (d *AdminDashboard) Data() AdminData { return d.get() }

func (d *AdminDashboard) Applications(filter string) []domain.Application {
	return FilterByStatus(d.get().Applications, filter)
}

func (d *AdminDashboard) Counts() map[string]int { return CountByStatus(d.get().Applications) }

// SetStatus moves an application to any status and refetches rather than
// patching the row.
func (d *AdminDashboard) SetStatus(ctx context.Context, appID, status string) error {
	st, ok := domain.ParseStatus(status)
	if !ok {
		return d.fail(ctx, "update status", domain.ValidationErrors{"status": "Unknown status " + status})
	}
	return d.mutate(ctx, "update status", "Status updated to "+string(st), func() error {
		return d.deps.Gateway.SetStatus(ctx, appID, st)
	})
}

func (d *AdminDashboard) ChangeRole(ctx context.Context, userID string, role domain.Role) error {
	if !role.Valid() {
		return d.fail(ctx, "update role", domain.ValidationErrors{"role": "Unknown role " + string(role)})
	}
	return d.mutate(ctx, "update role", "Role updated successfully!", func() error {
		return d.deps.Gateway.ChangeRole(ctx, userID, role)
	})
}

func (d *AdminDashboard) UploadCertificate(ctx context.Context, appID, filename string, r io.Reader) error {
	if r == nil {
		return d.fail(ctx, "upload certificate", domain.ValidationErrors{"file": "Please select a certificate file"})
	}
	return d.mutate(ctx, "upload certificate", "Certificate uploaded successfully!", func() error {
		return d.deps.Gateway.UploadCertificate(ctx, appID, ports.Upload{Filename: filename, Content: r})
	})
}

// SaveService creates svc when it has no id and updates it otherwise.
func (d *AdminDashboard) SaveService(ctx context.Context, svc domain.Service) error {
	svc.Name = strings.TrimSpace(svc.Name)
	if svc.Name == "" {
		return d.fail(ctx, "save service", domain.ValidationErrors{"name": "Please enter service name"})
	}
	return d.mutate(ctx, "save service", "Service saved", func() error {
		var err error
		if svc.ID == "" {
			_, err = d.deps.Gateway.CreateService(ctx, svc)
		} else {
			_, err = d.deps.Gateway.UpdateService(ctx, svc)
		}
		return err
	})
}

func (d *AdminDashboard) DeleteService(ctx context.Context, id string) error {
	return d.mutate(ctx, "delete service", "Service deleted", func() error {
		return d.deps.Gateway.DeleteService(ctx, id)
	})
}

func (d *AdminDashboard) AddNotice(ctx context.Context, title string) error {
	return d.mutate(ctx, "add notice", "Notice added", func() error {
		_, err := d.deps.Gateway.CreateNotice(ctx, strings.TrimSpace(title))
		return err
	})
}

func (d *AdminDashboard) EditNotice(ctx context.Context, id, title string) error {
	return d.mutate(ctx, "update notice", "Notice updated", func() error {
		_, err := d.deps.Gateway.UpdateNotice(ctx, id, strings.TrimSpace(title))
		return err
	})
}

func (d *AdminDashboard) DeleteNotice(ctx context.Context, id string) error {
	return d.mutate(ctx, "delete notice", "Notice deleted", func() error {
		return d.deps.Gateway.DeleteNotice(ctx, id)
	})
}

func (d *AdminDashboard) AddHeroSlide(ctx context.Context, title, subtitle, filename string, r io.Reader) error {
	title, subtitle = strings.TrimSpace(title), strings.TrimSpace(subtitle)
	if title == "" || subtitle == "" || r == nil {
		return d.fail(ctx, "upload hero banner", domain.ValidationErrors{"image": "Please fill all fields"})
	}
	return d.mutate(ctx, "upload hero banner", "Hero banner uploaded successfully!", func() error {
		return d.deps.Gateway.CreateHeroSlide(ctx, title, subtitle, ports.Upload{Filename: filename, Content: r})
	})
}

func (d *AdminDashboard) DeleteHeroSlide(ctx context.Context, id string) error {
	return d.mutate(ctx, "delete hero banner", "Hero banner deleted", func() error {
		return d.deps.Gateway.DeleteHeroSlide(ctx, id)
	})
}
