package usecase

import (
	"context"

	"go.uber.org/zap"

	"odysseus/internal/modules/auth/domain"
	authdto "odysseus/internal/modules/auth/dto"
	apperrors "odysseus/internal/platform/errors"
)

// Check runs one gate evaluation. It is never cached: each guarded
// navigation calls it again.
func (i *Interactor) Check(ctx context.Context) authdto.GateResult {
	current := i.session.Current(ctx)
	if !current.Present {
		i.logger.Debug("gate", zap.Stringer("outcome", domain.OutcomeDenied), zap.String("reason", "no token"))
		return authdto.GateResult{Reason: "Please log in."}
	}

	verified, err := i.api.Verify(ctx, current.Token)
	if err != nil {
		i.logger.Info("gate", zap.Stringer("outcome", domain.OutcomeDenied), zap.Error(err))
		if clearErr := i.session.Clear(ctx); clearErr != nil {
			i.logger.Error("clear rejected session", zap.Error(clearErr))
		}
		reason := apperrors.UserMessage(err)
		if apperrors.IsAuth(err) {
			reason = "Session expired. Please log in again."
		}
		return authdto.GateResult{Reason: reason}
	}

	user := authdto.UserOutput{ID: current.UserID, Name: current.Name, Email: current.Email}
	if verified.ID != "" && toUserOutput(verified) != user {
		if err := i.store(ctx, current.Token, verified); err != nil {
			i.logger.Warn("refresh session user", zap.Error(err))
		} else {
			user = toUserOutput(verified)
		}
	}
	i.logger.Debug("gate", zap.Stringer("outcome", domain.OutcomeAllowed), zap.String("user_id", user.ID))
	return authdto.GateResult{Allowed: true, User: user}
}
