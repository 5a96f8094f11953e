package in

import (
	"context"

	progressiondto "odysseus/internal/modules/progression/dto"
	progressionin "odysseus/internal/modules/progression/port/in"
)

type CLIHandler struct {
	usecase progressionin.Usecase
}

func NewCLIHandler(usecase progressionin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Enter(ctx context.Context, storyID, status string) (progressiondto.Snapshot, error) {
	return h.usecase.Enter(ctx, progressiondto.EnterInput{StoryID: storyID, Status: status})
}

func (h CLIHandler) FetchOptions(ctx context.Context) (progressiondto.Snapshot, error) {
	return h.usecase.FetchOptions(ctx)
}

func (h CLIHandler) Choose(ctx context.Context, choice int) (progressiondto.Snapshot, error) {
	return h.usecase.Choose(ctx, choice)
}

func (h CLIHandler) Retry(ctx context.Context) (progressiondto.Snapshot, error) {
	return h.usecase.Retry(ctx)
}

func (h CLIHandler) Leave(ctx context.Context) {
	h.usecase.Leave(ctx)
}

func (h CLIHandler) Snapshot(ctx context.Context) progressiondto.Snapshot {
	return h.usecase.Snapshot(ctx)
}
