package out

import (
	"context"
	"fmt"
	"net/http"

	"odysseus/internal/modules/auth/domain"
	authout "odysseus/internal/modules/auth/port/out"
	"odysseus/internal/platform/httpapi"
)

type userPayload struct {
	ID    httpapi.ID `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
}

func (u userPayload) identity() domain.Identity {
	return domain.Identity{ID: u.ID.String(), Name: u.Name, Email: u.Email}
}

type HTTPAPI struct {
	client *httpapi.Client
}

func NewHTTPAPI(client *httpapi.Client) authout.API {
	return &HTTPAPI{client: client}
}

func (a *HTTPAPI) Login(ctx context.Context, email, password string) (domain.LoginResult, error) {
	var out struct {
		AccessToken string       `json:"access_token"`
		TokenType   string       `json:"token_type"`
		User        *userPayload `json:"user"`
	}
	err := a.client.JSON(ctx, httpapi.Request{
		Method: http.MethodPost,
		Path:   "/login",
		Body:   map[string]string{"email": email, "password": password},
	}, &out)
	if err != nil {
		return domain.LoginResult{}, fmt.Errorf("login: %w", err)
	}
	result := domain.LoginResult{Token: out.AccessToken}
	if out.User != nil {
		result.User = out.User.identity()
	}
	return result, nil
}

// Signup only confirms creation: any 2xx succeeds, and the identity is
// filled in when the body carries one.
func (a *HTTPAPI) Signup(ctx context.Context, name, email, password string) (domain.Identity, error) {
	var out userPayload
	err := a.client.Send(ctx, httpapi.Request{
		Method: http.MethodPost,
		Path:   "/signup/",
		Body:   map[string]string{"name": name, "email": email, "password": password},
	}, &out)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("signup: %w", err)
	}
	return out.identity(), nil
}

// Verify treats any 2xx as a valid session. A user in the body, when
// present, refreshes the identity.
func (a *HTTPAPI) Verify(ctx context.Context, token string) (domain.Identity, error) {
	var out struct {
		Status string       `json:"status"`
		User   *userPayload `json:"user"`
	}
	err := a.client.Send(ctx, httpapi.Request{
		Method: http.MethodGet,
		Path:   "/auth/verify/",
		Bearer: token,
	}, &out)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("verify session: %w", err)
	}
	if out.User == nil {
		return domain.Identity{}, nil
	}
	return out.User.identity(), nil
}

func (a *HTTPAPI) CurrentUser(ctx context.Context, token string) (domain.Identity, error) {
	var out userPayload
	err := a.client.JSON(ctx, httpapi.Request{
		Method: http.MethodGet,
		Path:   "/user",
		Bearer: token,
	}, &out)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("current user: %w", err)
	}
	return out.identity(), nil
}

func (a *HTTPAPI) Logout(ctx context.Context, token string) error {
	err := a.client.Send(ctx, httpapi.Request{
		Method:  http.MethodPost,
		Path:    "/logout",
		Cookies: []*http.Cookie{{Name: "access_token", Value: token}},
	}, nil)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (a *HTTPAPI) GoogleLoginURL() string {
	return a.client.URL("/auth/google", nil)
}
