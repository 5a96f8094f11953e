package out

import (
	"context"

	"odysseus/internal/modules/progression/domain"
)

type API interface {
	Options(ctx context.Context, token, userID, storyID string) (domain.OptionSet, error)
	Submit(ctx context.Context, token, userID, storyID string, choice int) (domain.Continuation, error)
}
