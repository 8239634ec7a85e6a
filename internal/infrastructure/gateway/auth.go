package gateway

import (
	"context"
	"net/http"

	"citizen-portal/internal/ports"
)

func (c *Client) Signup(ctx context.Context, req ports.SignupRequest) error {
	return exec(ctx, c, request{op: "signup", method: http.MethodPost, path: "/api/auth/signup", json: req})
}

func (c *Client) Login(ctx context.Context, mobile, password string) (ports.LoginResult, error) {
	body := map[string]string{"mobile": mobile, "password": password}
	return call[ports.LoginResult](ctx, c, request{op: "login", method: http.MethodPost, path: "/api/auth/login", json: body})
}

func (c *Client) SendOTP(ctx context.Context, mobile string) error {
	body := map[string]string{"mobile": mobile}
	return exec(ctx, c, request{op: "send otp", method: http.MethodPost, path: "/api/auth/send-otp", json: body})
}

func (c *Client) ResetPassword(ctx context.Context, mobile, otp, newPassword string) error {
	body := map[string]string{"mobile": mobile, "otp": otp, "newPassword": newPassword}
	return exec(ctx, c, request{op: "reset password", method: http.MethodPost, path: "/api/auth/reset-password", json: body})
}
