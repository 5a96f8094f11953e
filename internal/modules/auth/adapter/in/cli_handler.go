package in

import (
	"context"
	"net/url"
	"strings"

	authdto "odysseus/internal/modules/auth/dto"
	authin "odysseus/internal/modules/auth/port/in"
)

type CLIHandler struct {
	usecase authin.Usecase
}

func NewCLIHandler(usecase authin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Check(ctx context.Context) authdto.GateResult {
	return h.usecase.Check(ctx)
}

func (h CLIHandler) Login(ctx context.Context, email, password string) (authdto.UserOutput, error) {
	return h.usecase.Login(ctx, authdto.LoginInput{Email: email, Password: password})
}

func (h CLIHandler) Signup(ctx context.Context, name, email, password, confirm string) (authdto.SignupOutput, error) {
	return h.usecase.Signup(ctx, authdto.SignupInput{Name: name, Email: email, Password: password, ConfirmPassword: confirm})
}

// Callback accepts either the full redirect URL or the bare token.
func (h CLIHandler) Callback(ctx context.Context, raw string) (authdto.CallbackOutput, error) {
	return h.usecase.OAuthCallback(ctx, TokenFromCallback(raw))
}

func (h CLIHandler) Logout(ctx context.Context) error {
	return h.usecase.Logout(ctx)
}

func (h CLIHandler) Status(ctx context.Context) authdto.StatusOutput {
	return h.usecase.Status(ctx)
}

func (h CLIHandler) GoogleLoginURL() string {
	return h.usecase.GoogleLoginURL()
}

// TokenFromCallback extracts access_token from a callback URL. Input that is
// not such a URL is taken as the token itself.
func TokenFromCallback(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "access_token=") {
		return raw
	}
	if u, err := url.Parse(raw); err == nil {
		if token := u.Query().Get("access_token"); token != "" {
			return token
		}
		if values, err := url.ParseQuery(u.Fragment); err == nil && values.Get("access_token") != "" {
			return values.Get("access_token")
		}
	}
	if values, err := url.ParseQuery(strings.TrimPrefix(raw, "?")); err == nil {
		return values.Get("access_token")
	}
	return ""
}
