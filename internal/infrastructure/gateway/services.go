package gateway

import (
	"context"
	"net/http"

	"citizen-portal/internal/domain"
)

func (c *Client) ListServices(ctx context.Context) ([]domain.Service, error) {
	return call[[]domain.Service](ctx, c, request{op: "list services", method: http.MethodGet, path: "/api/services"})
}

func (c *Client) CreateService(ctx context.Context, svc domain.Service) (domain.Service, error) {
	svc.ID = ""
	return call[domain.Service](ctx, c, request{op: "create service", method: http.MethodPost, path: "/api/services", json: svc})
}

func (c *Client) UpdateService(ctx context.Context, svc domain.Service) (domain.Service, error) {
	return call[domain.Service](ctx, c, request{op: "update service", method: http.MethodPut, path: "/api/services/" + pathID(svc.ID), json: svc})
}

func (c *Client) DeleteService(ctx context.Context, id string) error {
	return exec(ctx, c, request{op: "delete service", method: http.MethodDelete, path: "/api/services/" + pathID(id)})
}
