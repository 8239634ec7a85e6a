package application

import (
	"context"
	"io"
	"strings"

	"citizen-portal/internal/domain"
	"citizen-portal/internal/ports"
)

// OperatorPanel triages every application.
type OperatorPanel struct {
	*view[[]domain.Application]
}

func NewOperatorPanel(deps ViewDeps) *OperatorPanel {
	fetch := func(ctx context.Context) ([]domain.Application, error) {
		apps, err := deps.Gateway.ListApplications(ctx)
		if err != nil {
			return nil, err
		}
		return newestFirst(apps), nil
	}
	return &OperatorPanel{view: newView(deps, "load applications", fetch, OperatorEvents, domain.RoleOperator, domain.RoleAdmin)}
}

func (p *OperatorPanel) Mount(ctx context.Context) error { return p.mount(ctx) }

func (p *OperatorPanel) Close() error { return p.close() }

// Applications applies the status filter, then the search.
func (p *OperatorPanel) Applications(filter, query string) []domain.Application {
	return Search(FilterByStatus(p.get(), filter), query)
}

func (p *OperatorPanel) Counts() map[string]int { return CountByStatus(p.get()) }

func (p *OperatorPanel) UploadFormPDF(ctx context.Context, appID, filename string, r io.Reader) error {
	return p.mutate(ctx, "upload form PDF", "PDF uploaded successfully", func() error {
		return p.deps.Gateway.UploadFormPDF(ctx, appID, ports.Upload{Filename: filename, Content: r})
	})
}

func (p *OperatorPanel) Reject(ctx context.Context, appID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return p.fail(ctx, "reject application", domain.ValidationErrors{"reason": "Rejection reason is required"})
	}
	if a, ok := findApplication(p.get(), appID); ok && !a.CanReject() {
		return p.fail(ctx, "reject application", unavailable("reject", a))
	}
	return p.mutate(ctx, "reject application", "Application rejected", func() error {
		return p.deps.Gateway.Reject(ctx, appID, reason)
	})
}

func (p *OperatorPanel) OpenProfile(ctx context.Context, userID string) (domain.Profile, error) {
	prof, err := p.deps.Gateway.Profile(ctx, userID)
	if err != nil {
		return domain.Profile{}, p.fail(ctx, "load profile", err)
	}
	return prof, nil
}

func (p *OperatorPanel) DeleteDocument(ctx context.Context, userID string, field domain.DocumentField) (domain.Profile, error) {
	prof, err := p.deps.Gateway.DeleteUserDocument(ctx, userID, field)
	if err != nil {
		return domain.Profile{}, p.fail(ctx, "delete document", err)
	}
	p.deps.Reporter.Succeed(ctx, field.Label()+" deleted successfully.")
	return prof, nil
}

func (p *OperatorPanel) DownloadAllDocuments(ctx context.Context, userID string) (string, error) {
	msg, err := p.deps.Gateway.DownloadAllDocuments(ctx, userID)
	if err != nil {
		return "", p.fail(ctx, "download all documents", err)
	}
	if msg == "" {
		msg = "Documents downloaded successfully"
	}
	p.deps.Reporter.Succeed(ctx, msg)
	return msg, nil
}

func (p *OperatorPanel) DownloadFile(ctx context.Context, filename string, w io.Writer) (int64, error) {
	n, err := p.deps.Gateway.Download(ctx, filename, w)
	if err != nil {
		return n, p.fail(ctx, "download file", err)
	}
	return n, nil
}
