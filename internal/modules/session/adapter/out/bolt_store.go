package out

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"odysseus/internal/modules/session/domain"
	apperrors "odysseus/internal/platform/errors"
)

var (
	sessionBucket    = []byte("session")
	navigationBucket = []byte("navigation")
	currentKey       = []byte("current")
)

// BoltStore keeps the session and navigation state in one bbolt file. It
// satisfies both SessionStore and NavigationStore.
type BoltStore struct {
	db *bbolt.DB
}

func OpenBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt store: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{sessionBucket, navigationBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) Save(_ context.Context, session domain.Session) error {
	return s.put(sessionBucket, session)
}

func (s *BoltStore) Load(_ context.Context) (domain.Session, error) {
	session := domain.Session{}
	found, err := s.get(sessionBucket, &session)
	if err != nil {
		return domain.Session{}, fmt.Errorf("load session: %w", err)
	}
	if !found || !session.Valid() {
		return domain.Session{}, apperrors.ErrNoSession
	}
	return session, nil
}

func (s *BoltStore) Clear(_ context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(sessionBucket).Delete(currentKey)
	})
}

func (s *BoltStore) SaveNavigation(_ context.Context, nav domain.Navigation) error {
	nav.Version = domain.SchemaVersion
	return s.put(navigationBucket, nav)
}

func (s *BoltStore) LoadNavigation(_ context.Context) (domain.Navigation, error) {
	nav := domain.Navigation{}
	if _, err := s.get(navigationBucket, &nav); err != nil {
		return domain.Navigation{}, fmt.Errorf("load navigation: %w", err)
	}
	return nav, nil
}

func (s *BoltStore) put(bucket []byte, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", bucket, err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Put(currentKey, payload)
	})
}

func (s *BoltStore) get(bucket []byte, v any) (bool, error) {
	var payload []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if raw := tx.Bucket(bucket).Get(currentKey); raw != nil {
			payload = append([]byte(nil), raw...)
		}
		return nil
	})
	if err != nil || payload == nil {
		return false, err
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", bucket, err)
	}
	return true, nil
}
