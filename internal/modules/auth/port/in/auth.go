package in

import (
	"context"

	"odysseus/internal/modules/auth/dto"
)

type Usecase interface {
	// Check verifies the stored session with the backend. A denied check
	// leaves no session behind.
	Check(ctx context.Context) dto.GateResult

	Login(ctx context.Context, input dto.LoginInput) (dto.UserOutput, error)
	Signup(ctx context.Context, input dto.SignupInput) (dto.SignupOutput, error)
	OAuthCallback(ctx context.Context, token string) (dto.CallbackOutput, error)
	Logout(ctx context.Context) error
	Status(ctx context.Context) dto.StatusOutput
	GoogleLoginURL() string
}
