package out

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"odysseus/internal/modules/session/domain"
	sessionout "odysseus/internal/modules/session/port/out"
	apperrors "odysseus/internal/platform/errors"
)

type FileSessionStore struct {
	path string
}

func NewFileSessionStore(path string) sessionout.SessionStore {
	return &FileSessionStore{path: path}
}

func (s *FileSessionStore) Save(_ context.Context, session domain.Session) error {
	payload, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := writeFileAtomic(s.path, payload, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (s *FileSessionStore) Load(_ context.Context) (domain.Session, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Session{}, apperrors.ErrNoSession
		}
		return domain.Session{}, fmt.Errorf("read session: %w", err)
	}
	session := domain.Session{}
	if err := json.Unmarshal(payload, &session); err != nil {
		return domain.Session{}, fmt.Errorf("decode session: %w", err)
	}
	if !session.Valid() {
		return domain.Session{}, apperrors.ErrNoSession
	}
	return session, nil
}

func (s *FileSessionStore) Clear(_ context.Context) error {
	if err := removeIfExists(s.path); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
