package out

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"odysseus/internal/modules/story/domain"
	storyout "odysseus/internal/modules/story/port/out"

	_ "modernc.org/sqlite"
)

type SQLiteStoryIndex struct {
	db *sql.DB
}

func NewSQLiteStoryIndex(dbPath string) (*SQLiteStoryIndex, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	index := &SQLiteStoryIndex{db: db}
	if err := index.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return index, nil
}

var _ storyout.Index = (*SQLiteStoryIndex)(nil)

func (s *SQLiteStoryIndex) Close() error {
	return s.db.Close()
}

func (s *SQLiteStoryIndex) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS stories (
  owner_id TEXT NOT NULL,
  id TEXT NOT NULL,
  position INTEGER NOT NULL,
  title TEXT NOT NULL,
  genre TEXT NOT NULL,
  status TEXT NOT NULL,
  created_at TEXT,
  updated_at TEXT,
  PRIMARY KEY (owner_id, id)
);
CREATE TABLE IF NOT EXISTS story_syncs (
  owner_id TEXT PRIMARY KEY,
  synced_at TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create story index tables: %w", err)
	}
	return nil
}

// Replace swaps the owner's projection for stories in one transaction.
func (s *SQLiteStoryIndex) Replace(ctx context.Context, ownerID string, stories []domain.Story, syncedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin index tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM stories WHERE owner_id = ?`, ownerID); err != nil {
		return fmt.Errorf("reset story index: %w", err)
	}
	const stmt = `
INSERT INTO stories (owner_id, id, position, title, genre, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(owner_id, id) DO UPDATE SET
  position=excluded.position,
  title=excluded.title,
  genre=excluded.genre,
  status=excluded.status,
  created_at=excluded.created_at,
  updated_at=excluded.updated_at;
`
	for pos, story := range stories {
		_, err := tx.ExecContext(ctx, stmt,
			ownerID,
			story.ID,
			pos,
			story.Title,
			story.Genre,
			string(story.Status),
			formatTime(story.CreatedAt),
			formatTime(story.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("index story %s: %w", story.ID, err)
		}
	}
	const sync = `
INSERT INTO story_syncs (owner_id, synced_at) VALUES (?, ?)
ON CONFLICT(owner_id) DO UPDATE SET synced_at=excluded.synced_at;
`
	if _, err := tx.ExecContext(ctx, sync, ownerID, formatTime(syncedAt)); err != nil {
		return fmt.Errorf("record index sync: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStoryIndex) List(ctx context.Context, ownerID string) ([]domain.Story, time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, title, genre, status, created_at, updated_at
FROM stories WHERE owner_id = ? ORDER BY position`, ownerID)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("query story index: %w", err)
	}
	defer rows.Close()

	stories := []domain.Story{}
	for rows.Next() {
		var (
			story            domain.Story
			status           string
			created, updated sql.NullString
		)
		if err := rows.Scan(&story.ID, &story.Title, &story.Genre, &status, &created, &updated); err != nil {
			return nil, time.Time{}, fmt.Errorf("scan story index: %w", err)
		}
		story.Status = domain.Status(status)
		story.CreatedAt = parseTime(created.String)
		story.UpdatedAt = parseTime(updated.String)
		stories = append(stories, story)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("iterate story index: %w", err)
	}

	var synced sql.NullString
	err = s.db.QueryRowContext(ctx, `SELECT synced_at FROM story_syncs WHERE owner_id = ?`, ownerID).Scan(&synced)
	if err != nil && err != sql.ErrNoRows {
		return nil, time.Time{}, fmt.Errorf("read index sync: %w", err)
	}
	return stories, parseTime(synced.String), nil
}

func (s *SQLiteStoryIndex) Remove(ctx context.Context, ownerID, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM stories WHERE owner_id = ? AND id = ?`, ownerID, id); err != nil {
		return fmt.Errorf("remove story %s from index: %w", id, err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
