package gateway

import (
	"context"
	"net/http"

	"citizen-portal/internal/domain"
	"citizen-portal/internal/ports"
)

type userEnvelope struct {
	User domain.Profile `json:"user"`
}

func (c *Client) FetchProfile(ctx context.Context, token, userID string) (domain.Profile, error) {
	r := request{op: "fetch profile", method: http.MethodGet, path: "/api/users/" + pathID(userID) + "/profile"}
	return call[domain.Profile](ctx, c, r.withToken(token))
}

func (c *Client) Profile(ctx context.Context, userID string) (domain.Profile, error) {
	return call[domain.Profile](ctx, c, request{op: "fetch profile", method: http.MethodGet, path: "/api/users/" + pathID(userID) + "/profile"})
}

func (c *Client) Me(ctx context.Context) (domain.Profile, error) {
	return call[domain.Profile](ctx, c, request{op: "fetch me", method: http.MethodGet, path: "/api/users/me"})
}

func (c *Client) ListUsers(ctx context.Context) ([]domain.UserSummary, error) {
	return call[[]domain.UserSummary](ctx, c, request{op: "list users", method: http.MethodGet, path: "/api/users"})
}

func (c *Client) ChangeRole(ctx context.Context, userID string, role domain.Role) error {
	body := map[string]domain.Role{"role": role}
	return exec(ctx, c, request{op: "change role", method: http.MethodPut, path: "/api/users/" + pathID(userID) + "/role", json: body})
}

// UpdateProfile sends only the fields that are set. Files go under their
// document field name.
func (c *Client) UpdateProfile(ctx context.Context, update ports.ProfileUpdate) (domain.Profile, error) {
	form := newForm().
		field("name", update.Name).
		field("gender", update.Gender).
		field("dob", update.DOB)
	for _, f := range update.Files {
		form.file(f, profileDoc)
	}
	env, err := call[userEnvelope](ctx, c, request{op: "update profile", method: http.MethodPut, path: "/api/users/profile", form: form})
	return env.User, err
}

func (c *Client) DeleteOwnDocument(ctx context.Context, field domain.DocumentField) (domain.Profile, error) {
	if !field.Valid() {
		return domain.Profile{}, domain.ValidationErrors{"file": "Unknown document " + string(field)}
	}
	env, err := call[userEnvelope](ctx, c, request{op: "delete document", method: http.MethodDelete, path: "/api/users/profile/document/" + pathID(string(field))})
	return env.User, err
}

func (c *Client) DeleteUserDocument(ctx context.Context, userID string, field domain.DocumentField) (domain.Profile, error) {
	if !field.Valid() {
		return domain.Profile{}, domain.ValidationErrors{"file": "Unknown document " + string(field)}
	}
	path := "/api/users/profile/document/" + pathID(userID) + "/" + pathID(string(field))
	env, err := call[userEnvelope](ctx, c, request{op: "delete document", method: http.MethodDelete, path: path})
	return env.User, err
}
