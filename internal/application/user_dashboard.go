package application

import (
	"context"
	"io"
	"strings"

	"citizen-portal/internal/domain"
)

// UserDashboard lists the signed-in user's own applications, newest first.
type UserDashboard struct {
	*view[[]domain.Application]
}

func NewUserDashboard(deps ViewDeps) *UserDashboard {
	fetch := func(ctx context.Context) ([]domain.Application, error) {
		apps, err := deps.Gateway.ListMyApplications(ctx)
		if err != nil {
			return nil, err
		}
		return newestFirst(apps), nil
	}
	return &UserDashboard{view: newView(deps, "load applications", fetch, UserEvents)}
}

func (d *UserDashboard) Mount(ctx context.Context) error { return d.mount(ctx) }

func (d *UserDashboard) Close() error { return d.close() }

func (d *UserDashboard) Applications() []domain.Application { return d.get() }

func (d *UserDashboard) Confirm(ctx context.Context, appID string) error {
	if a, ok := findApplication(d.get(), appID); ok && !a.CanConfirm() {
		return d.fail(ctx, "confirm application", unavailable("confirm", a))
	}
	return d.mutate(ctx, "confirm application", "Application confirmed!", func() error {
		return d.deps.Gateway.Confirm(ctx, appID)
	})
}

func (d *UserDashboard) SubmitCorrection(ctx context.Context, appID, comment string) error {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return d.fail(ctx, "send correction", domain.ValidationErrors{"comment": "Please enter correction reason."})
	}
	if a, ok := findApplication(d.get(), appID); ok && !a.CanRequestCorrection() {
		return d.fail(ctx, "send correction", unavailable("correct", a))
	}
	return d.mutate(ctx, "send correction", "Correction sent to operator.", func() error {
		return d.deps.Gateway.SubmitCorrection(ctx, appID, comment)
	})
}

// DownloadCertificate writes the certificate of a completed application
// to w.
func (d *UserDashboard) DownloadCertificate(ctx context.Context, appID string, w io.Writer) (string, int64, error) {
	const action = "download certificate"
	a, ok := findApplication(d.get(), appID)
	if !ok {
		return "", 0, d.fail(ctx, action, domain.ErrNotFound)
	}
	if !a.CertificateAvailable() {
		return "", 0, d.fail(ctx, action, domain.ValidationErrors{"status": "Certificate is not available yet"})
	}
	n, err := d.deps.Gateway.Download(ctx, a.Certificate.Filename, w)
	if err != nil {
		return "", n, d.fail(ctx, action, err)
	}
	return a.Certificate.Filename, n, nil
}
