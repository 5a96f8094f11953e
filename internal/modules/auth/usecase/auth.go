package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"odysseus/internal/modules/auth/domain"
	authdto "odysseus/internal/modules/auth/dto"
	authin "odysseus/internal/modules/auth/port/in"
	authout "odysseus/internal/modules/auth/port/out"
	sessiondto "odysseus/internal/modules/session/dto"
	sessionin "odysseus/internal/modules/session/port/in"
	"odysseus/internal/platform/clock"
	apperrors "odysseus/internal/platform/errors"
	"odysseus/internal/platform/logging"
)

type Interactor struct {
	api     authout.API
	claims  authout.ClaimsDecoder
	session sessionin.Usecase
	clock   clock.Clock
	logger  *zap.Logger
}

func NewInteractor(api authout.API, claims authout.ClaimsDecoder, session sessionin.Usecase, clk clock.Clock, logger *zap.Logger) authin.Usecase {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Interactor{
		api:     api,
		claims:  claims,
		session: session,
		clock:   clk,
		logger:  logging.OrNop(logger).Named("auth"),
	}
}

func (i *Interactor) Login(ctx context.Context, input authdto.LoginInput) (authdto.UserOutput, error) {
	if err := domain.ValidateLogin(input.Email, input.Password); err != nil {
		return authdto.UserOutput{}, err
	}
	result, err := i.api.Login(ctx, input.Email, input.Password)
	if err != nil {
		if errors.Is(err, apperrors.ErrUnauthenticated) {
			return authdto.UserOutput{}, fmt.Errorf("%w: %w", apperrors.ErrInvalidCredentials, err)
		}
		i.logger.Warn("login failed", zap.Error(err))
		return authdto.UserOutput{}, err
	}
	if result.Token == "" {
		return authdto.UserOutput{}, fmt.Errorf("%w: login response carried no token", apperrors.ErrRequestFailed)
	}
	user := result.User
	if user.ID == "" {
		user, err = i.resolveIdentity(ctx, result.Token)
		if err != nil {
			return authdto.UserOutput{}, err
		}
	}
	if err := i.store(ctx, result.Token, user); err != nil {
		return authdto.UserOutput{}, err
	}
	i.logger.Info("logged in", zap.String("user_id", user.ID))
	return toUserOutput(user), nil
}

func (i *Interactor) Signup(ctx context.Context, input authdto.SignupInput) (authdto.SignupOutput, error) {
	if err := domain.ValidateSignup(input.Name, input.Email, input.Password, input.ConfirmPassword); err != nil {
		return authdto.SignupOutput{}, err
	}
	user, err := i.api.Signup(ctx, input.Name, input.Email, input.Password)
	if err != nil {
		i.logger.Warn("signup failed", zap.Error(err))
		return authdto.SignupOutput{}, err
	}
	i.logger.Info("account created", zap.String("user_id", user.ID))
	return authdto.SignupOutput{
		User:    toUserOutput(user),
		Message: "Account created. Please log in.",
	}, nil
}

// OAuthCallback accepts a token handed back by the OAuth redirect. The token
// is trusted as issued by the backend; the next gate check verifies it.
func (i *Interactor) OAuthCallback(ctx context.Context, token string) (authdto.CallbackOutput, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return authdto.CallbackOutput{Next: authdto.NextAuth}, nil
	}
	user, err := i.resolveIdentity(ctx, token)
	if err != nil {
		i.logger.Warn("oauth identity unavailable", zap.Error(err))
		return authdto.CallbackOutput{Next: authdto.NextAuth}, err
	}
	if err := i.store(ctx, token, user); err != nil {
		return authdto.CallbackOutput{Next: authdto.NextAuth}, err
	}
	next := i.session.TakeRememberedView(ctx)
	if next == "" {
		next = authdto.NextDashboard
	}
	i.logger.Info("oauth login", zap.String("user_id", user.ID), zap.String("next", next))
	return authdto.CallbackOutput{Next: next, User: toUserOutput(user)}, nil
}

// Logout always ends the local session, whatever the backend says.
func (i *Interactor) Logout(ctx context.Context) error {
	current := i.session.Current(ctx)
	if current.Present {
		if err := i.api.Logout(ctx, current.Token); err != nil {
			i.logger.Warn("backend logout failed, clearing local session anyway", zap.Error(err))
		}
	}
	return i.session.Clear(ctx)
}

func (i *Interactor) Status(ctx context.Context) authdto.StatusOutput {
	current := i.session.Current(ctx)
	if !current.Present {
		return authdto.StatusOutput{}
	}
	out := authdto.StatusOutput{SignedIn: true}
	if claims, err := i.claims.Decode(current.Token); err == nil {
		out.Subject = claims.Subject
		out.ExpiresAt = claims.ExpiresAt
		out.Expired = claims.Expired(i.clock.Now())
	}
	result := i.Check(ctx)
	out.Verified = result.Allowed
	out.User = result.User
	if !result.Allowed {
		out.User = authdto.UserOutput{ID: current.UserID, Name: current.Name, Email: current.Email}
	}
	return out
}

func (i *Interactor) GoogleLoginURL() string {
	return i.api.GoogleLoginURL()
}

// resolveIdentity prefers the token's own claims and falls back to asking
// the backend who the token belongs to.
func (i *Interactor) resolveIdentity(ctx context.Context, token string) (domain.Identity, error) {
	if claims, err := i.claims.Decode(token); err == nil {
		if user, ok := claims.Identity(); ok {
			return user, nil
		}
	} else {
		i.logger.Debug("token claims unreadable", zap.Error(err))
	}
	user, err := i.api.CurrentUser(ctx, token)
	if err != nil {
		return domain.Identity{}, err
	}
	if user.ID == "" {
		return domain.Identity{}, fmt.Errorf("%w: backend returned no user id", apperrors.ErrRequestFailed)
	}
	return user, nil
}

func (i *Interactor) store(ctx context.Context, token string, user domain.Identity) error {
	return i.session.Set(ctx, sessiondto.SetInput{Token: token, UserID: user.ID, Name: user.Name, Email: user.Email})
}

func toUserOutput(user domain.Identity) authdto.UserOutput {
	return authdto.UserOutput{ID: user.ID, Name: user.Name, Email: user.Email}
}
