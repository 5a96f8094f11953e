package in

import (
	"context"

	"odysseus/internal/modules/story/dto"
)

type Usecase interface {
	Create(ctx context.Context, input dto.CreateInput) (dto.CreatedOutput, error)
	List(ctx context.Context, offline bool) (dto.ListOutput, error)
	Get(ctx context.Context, id string) (dto.StoryOutput, error)
	Delete(ctx context.Context, id string) error
	AddCollaborators(ctx context.Context, id string, userIDs []string) error
	ListUsers(ctx context.Context) ([]dto.MemberOutput, error)
	Export(ctx context.Context, id, dir string) (dto.ExportOutput, error)
	Share(ctx context.Context, id string) (dto.ShareOutput, error)
}
