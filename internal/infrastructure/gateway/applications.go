package gateway

import (
	"context"
	"net/http"

	"citizen-portal/internal/domain"
	"citizen-portal/internal/ports"
)

const applicationsPath = "/api/applications"

func appPath(id, action string) string {
	return applicationsPath + "/" + pathID(id) + "/" + action
}

func (c *Client) ListApplications(ctx context.Context) ([]domain.Application, error) {
	return call[[]domain.Application](ctx, c, request{op: "list applications", method: http.MethodGet, path: applicationsPath})
}

func (c *Client) ListMyApplications(ctx context.Context) ([]domain.Application, error) {
	return call[[]domain.Application](ctx, c, request{op: "list my applications", method: http.MethodGet, path: applicationsPath + "/user"})
}

func (c *Client) SubmitApplication(ctx context.Context, serviceID, userID string) (domain.Application, error) {
	body := map[string]string{"serviceId": serviceID, "userId": userID}
	return call[domain.Application](ctx, c, request{op: "submit application", method: http.MethodPost, path: applicationsPath, json: body})
}

func (c *Client) Confirm(ctx context.Context, appID string) error {
	return exec(ctx, c, request{op: "confirm application", method: http.MethodPut, path: appPath(appID, "confirm")})
}

func (c *Client) SubmitCorrection(ctx context.Context, appID, comment string) error {
	body := map[string]string{"comment": comment}
	return exec(ctx, c, request{op: "submit correction", method: http.MethodPut, path: appPath(appID, "correction"), json: body})
}

func (c *Client) Reject(ctx context.Context, appID, reason string) error {
	body := map[string]string{"reason": reason}
	return exec(ctx, c, request{op: "reject application", method: http.MethodPut, path: appPath(appID, "reject"), json: body})
}

func (c *Client) SetStatus(ctx context.Context, appID string, status domain.Status) error {
	body := map[string]domain.Status{"status": status}
	return exec(ctx, c, request{op: "update status", method: http.MethodPut, path: appPath(appID, "status"), json: body})
}

func (c *Client) UploadFormPDF(ctx context.Context, appID string, file ports.Upload) error {
	file.Field = "formPdf"
	form := newForm().file(file, pdfOnly)
	return exec(ctx, c, request{op: "upload form pdf", method: http.MethodPut, path: appPath(appID, "upload-pdf"), form: form})
}

func (c *Client) UploadCertificate(ctx context.Context, appID string, file ports.Upload) error {
	file.Field = "certificate"
	form := newForm().file(file, pdfOnly)
	return exec(ctx, c, request{op: "upload certificate", method: http.MethodPut, path: appPath(appID, "certificate"), form: form})
}

// DownloadAllDocuments asks the backend to bundle a user's documents and
// returns its message.
func (c *Client) DownloadAllDocuments(ctx context.Context, userID string) (string, error) {
	out, err := call[struct {
		Message string `json:"message"`
	}](ctx, c, request{op: "download all documents", method: http.MethodGet, path: appPath(userID, "download-all")})
	return out.Message, err
}
