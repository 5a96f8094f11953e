package out

import (
	"context"
	"time"

	"odysseus/internal/modules/story/domain"
)

type API interface {
	Create(ctx context.Context, token string, params domain.CreateParams) (domain.Created, error)
	List(ctx context.Context, token string) ([]domain.Story, error)
	Get(ctx context.Context, token, id string) (domain.Story, error)
	Delete(ctx context.Context, token, id string) error
	AddCollaborators(ctx context.Context, token, id string, userIDs []string) error
	ListUsers(ctx context.Context, token string) ([]domain.Member, error)
}

// Index is a local projection of each user's story list.
type Index interface {
	Replace(ctx context.Context, ownerID string, stories []domain.Story, syncedAt time.Time) error
	List(ctx context.Context, ownerID string) ([]domain.Story, time.Time, error)
	Remove(ctx context.Context, ownerID, id string) error
}

type Exporter interface {
	Export(ctx context.Context, story domain.Story, exportedAt time.Time, dir string) (string, error)
}
