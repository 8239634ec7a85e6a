package gateway

import (
	"context"
	"io"
	"net/http"

	"citizen-portal/internal/domain"
)

// Download streams a server file into w and returns the byte count.
func (c *Client) Download(ctx context.Context, filename string, w io.Writer) (int64, error) {
	if filename == "" {
		return 0, &domain.CallError{Op: "download file", Kind: domain.KindNotFound, Message: "no file"}
	}
	req := request{op: "download file", method: http.MethodGet, path: "/api/files/" + pathID(filename)}
	resp, err := c.send(ctx, req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, &domain.CallError{Op: req.op, Kind: domain.KindNetwork, Status: resp.StatusCode, Err: err}
	}
	return n, nil
}
