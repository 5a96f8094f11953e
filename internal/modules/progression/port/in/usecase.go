package in

import (
	"context"

	"odysseus/internal/modules/progression/dto"
)

type Usecase interface {
	Enter(ctx context.Context, input dto.EnterInput) (dto.Snapshot, error)
	FetchOptions(ctx context.Context) (dto.Snapshot, error)
	// Choose submits the 1-based option.
	Choose(ctx context.Context, choice int) (dto.Snapshot, error)
	Retry(ctx context.Context) (dto.Snapshot, error)
	Leave(ctx context.Context)
	Snapshot(ctx context.Context) dto.Snapshot
}
