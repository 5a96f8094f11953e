package in

import (
	"context"

	"odysseus/internal/modules/session/dto"
)

type Usecase interface {
	// Current never fails; an unreadable store reads as the absent session.
	Current(ctx context.Context) dto.SessionOutput
	Set(ctx context.Context, input dto.SetInput) error
	Clear(ctx context.Context) error

	SetCurrentStory(ctx context.Context, storyID string) error
	CurrentStory(ctx context.Context) string
	RememberView(ctx context.Context, view string) error
	// TakeRememberedView returns the remembered view once and erases it.
	TakeRememberedView(ctx context.Context) string
}
