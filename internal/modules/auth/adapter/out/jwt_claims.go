package out

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"odysseus/internal/modules/auth/domain"
	authout "odysseus/internal/modules/auth/port/out"
)

// UnverifiedClaimsDecoder reads JWT claims without checking the signature.
// The client holds no key; only the backend can verify.
type UnverifiedClaimsDecoder struct {
	parser *jwt.Parser
}

func NewUnverifiedClaimsDecoder() authout.ClaimsDecoder {
	return &UnverifiedClaimsDecoder{parser: jwt.NewParser()}
}

func (d *UnverifiedClaimsDecoder) Decode(token string) (domain.Claims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := d.parser.ParseUnverified(token, claims); err != nil {
		return domain.Claims{}, fmt.Errorf("parse token claims: %w", err)
	}
	out := domain.Claims{
		Name:  stringClaim(claims, "name"),
		Email: stringClaim(claims, "email"),
	}
	if sub, err := claims.GetSubject(); err == nil {
		out.Subject = sub
	}
	out.UserID = stringClaim(claims, "id")
	if out.UserID == "" {
		out.UserID = stringClaim(claims, "user_id")
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	switch v := claims[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}
