package in

import (
	"context"

	storydto "odysseus/internal/modules/story/dto"
	storyin "odysseus/internal/modules/story/port/in"
)

type CLIHandler struct {
	usecase storyin.Usecase
}

func NewCLIHandler(usecase storyin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Create(ctx context.Context, input storydto.CreateInput) (storydto.CreatedOutput, error) {
	return h.usecase.Create(ctx, input)
}

func (h CLIHandler) List(ctx context.Context, offline bool) (storydto.ListOutput, error) {
	return h.usecase.List(ctx, offline)
}

func (h CLIHandler) Get(ctx context.Context, id string) (storydto.StoryOutput, error) {
	return h.usecase.Get(ctx, id)
}

func (h CLIHandler) Delete(ctx context.Context, id string) error {
	return h.usecase.Delete(ctx, id)
}

func (h CLIHandler) AddCollaborators(ctx context.Context, id string, userIDs []string) error {
	return h.usecase.AddCollaborators(ctx, id, userIDs)
}

func (h CLIHandler) ListUsers(ctx context.Context) ([]storydto.MemberOutput, error) {
	return h.usecase.ListUsers(ctx)
}

func (h CLIHandler) Share(ctx context.Context, id string) (storydto.ShareOutput, error) {
	return h.usecase.Share(ctx, id)
}

func (h CLIHandler) Export(ctx context.Context, id, dir string) (storydto.ExportOutput, error) {
	return h.usecase.Export(ctx, id, dir)
}
