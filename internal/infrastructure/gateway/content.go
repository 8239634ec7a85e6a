package gateway

import (
	"context"
	"net/http"
	"strings"

	"citizen-portal/internal/domain"
	"citizen-portal/internal/ports"
)

func (c *Client) ListNotices(ctx context.Context) ([]domain.Notice, error) {
	return call[[]domain.Notice](ctx, c, request{op: "list notices", method: http.MethodGet, path: "/api/notices"})
}

func (c *Client) CreateNotice(ctx context.Context, title string) (domain.Notice, error) {
	if strings.TrimSpace(title) == "" {
		return domain.Notice{}, domain.ValidationErrors{"title": "Title is required"}
	}
	return call[domain.Notice](ctx, c, request{op: "create notice", method: http.MethodPost, path: "/api/notices", json: map[string]string{"title": title}})
}

func (c *Client) UpdateNotice(ctx context.Context, id, title string) (domain.Notice, error) {
	if strings.TrimSpace(title) == "" {
		return domain.Notice{}, domain.ValidationErrors{"title": "Title is required"}
	}
	return call[domain.Notice](ctx, c, request{op: "update notice", method: http.MethodPut, path: "/api/notices/" + pathID(id), json: map[string]string{"title": title}})
}

func (c *Client) DeleteNotice(ctx context.Context, id string) error {
	return exec(ctx, c, request{op: "delete notice", method: http.MethodDelete, path: "/api/notices/" + pathID(id)})
}

func (c *Client) ListHeroSlides(ctx context.Context) ([]domain.HeroSlide, error) {
	return call[[]domain.HeroSlide](ctx, c, request{op: "list hero slides", method: http.MethodGet, path: "/api/heroslides"})
}

func (c *Client) CreateHeroSlide(ctx context.Context, title, subtitle string, img ports.Upload) error {
	img.Field = "image"
	form := newForm().
		field("title", title).
		field("subtitle", subtitle).
		file(img, imageOnly)
	return exec(ctx, c, request{op: "create hero slide", method: http.MethodPost, path: "/api/heroslides", form: form})
}

func (c *Client) DeleteHeroSlide(ctx context.Context, id string) error {
	return exec(ctx, c, request{op: "delete hero slide", method: http.MethodDelete, path: "/api/heroslides/" + pathID(id)})
}
