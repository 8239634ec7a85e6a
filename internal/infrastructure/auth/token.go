package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"citizen-portal/internal/domain"
)

// Decoder reads the claims of a bearer token without checking its
// signature or expiry. The backend re-validates the token on every call;
// the client only needs the user id and role to pick a dashboard.
type Decoder struct {
	parser *jwt.Parser
}

func NewDecoder() *Decoder {
	return &Decoder{parser: jwt.NewParser()}
}

func (d *Decoder) Decode(token string) (domain.TokenClaims, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return domain.TokenClaims{}, fmt.Errorf("%w: empty token", domain.ErrInvalidToken)
	}
	claims := jwt.MapClaims{}
	if _, _, err := d.parser.ParseUnverified(token, claims); err != nil {
		return domain.TokenClaims{}, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	id := firstString(claims, "id", "_id", "sub")
	if id == "" {
		return domain.TokenClaims{}, fmt.Errorf("%w: missing user id claim", domain.ErrInvalidToken)
	}
	out := domain.TokenClaims{ID: id, Role: domain.Role(firstString(claims, "role"))}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		out.ExpiresAt = &t
	}
	return out, nil
}

func firstString(claims jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		if v, ok := claims[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
