package in

import (
	"context"

	sessiondto "odysseus/internal/modules/session/dto"
	sessionin "odysseus/internal/modules/session/port/in"
)

type CLIHandler struct {
	usecase sessionin.Usecase
}

func NewCLIHandler(usecase sessionin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Current(ctx context.Context) sessiondto.SessionOutput {
	return h.usecase.Current(ctx)
}

func (h CLIHandler) CurrentStory(ctx context.Context) string {
	return h.usecase.CurrentStory(ctx)
}

func (h CLIHandler) SetCurrentStory(ctx context.Context, storyID string) error {
	return h.usecase.SetCurrentStory(ctx, storyID)
}

func (h CLIHandler) RememberView(ctx context.Context, view string) error {
	return h.usecase.RememberView(ctx, view)
}

func (h CLIHandler) TakeRememberedView(ctx context.Context) string {
	return h.usecase.TakeRememberedView(ctx)
}
