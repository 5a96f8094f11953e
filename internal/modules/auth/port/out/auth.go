package out

import (
	"context"

	"odysseus/internal/modules/auth/domain"
)

type API interface {
	Login(ctx context.Context, email, password string) (domain.LoginResult, error)
	Signup(ctx context.Context, name, email, password string) (domain.Identity, error)
	// Verify returns the identity the backend reports for token; it may be
	// empty when the response carries none.
	Verify(ctx context.Context, token string) (domain.Identity, error)
	CurrentUser(ctx context.Context, token string) (domain.Identity, error)
	Logout(ctx context.Context, token string) error
	GoogleLoginURL() string
}

type ClaimsDecoder interface {
	Decode(token string) (domain.Claims, error)
}
