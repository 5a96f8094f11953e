package out

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"odysseus/internal/modules/session/domain"
	sessionout "odysseus/internal/modules/session/port/out"
)

type FileNavigationStore struct {
	path string
}

func NewFileNavigationStore(path string) sessionout.NavigationStore {
	return &FileNavigationStore{path: path}
}

func (s *FileNavigationStore) SaveNavigation(_ context.Context, nav domain.Navigation) error {
	if nav.CurrentStoryID == "" && nav.RememberedView == "" {
		if err := removeIfExists(s.path); err != nil {
			return fmt.Errorf("clear navigation: %w", err)
		}
		return nil
	}
	nav.Version = domain.SchemaVersion
	payload, err := json.MarshalIndent(nav, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal navigation: %w", err)
	}
	if err := writeFileAtomic(s.path, payload, 0o600); err != nil {
		return fmt.Errorf("write navigation: %w", err)
	}
	return nil
}

func (s *FileNavigationStore) LoadNavigation(_ context.Context) (domain.Navigation, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Navigation{}, nil
		}
		return domain.Navigation{}, fmt.Errorf("read navigation: %w", err)
	}
	nav := domain.Navigation{}
	if err := json.Unmarshal(payload, &nav); err != nil {
		return domain.Navigation{}, fmt.Errorf("decode navigation: %w", err)
	}
	return nav, nil
}
