package out

import (
	"context"

	"odysseus/internal/modules/session/domain"
)

// SessionStore persists the single session. Load returns ErrNoSession when
// nothing is stored; Clear is idempotent.
type SessionStore interface {
	Save(ctx context.Context, session domain.Session) error
	Load(ctx context.Context) (domain.Session, error)
	Clear(ctx context.Context) error
}

// NavigationStore persists navigation state. Load returns the zero value when
// nothing is stored.
type NavigationStore interface {
	SaveNavigation(ctx context.Context, nav domain.Navigation) error
	LoadNavigation(ctx context.Context) (domain.Navigation, error)
}
