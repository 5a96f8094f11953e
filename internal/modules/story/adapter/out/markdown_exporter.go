package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"odysseus/internal/modules/story/domain"
	storyout "odysseus/internal/modules/story/port/out"
	"odysseus/internal/platform/markdown"
	"odysseus/internal/platform/slug"
)

type exportFrontmatter struct {
	ID         string `yaml:"id"`
	Title      string `yaml:"title"`
	Genre      string `yaml:"genre,omitempty"`
	Status     string `yaml:"status"`
	CreatedAt  string `yaml:"created_at,omitempty"`
	UpdatedAt  string `yaml:"updated_at,omitempty"`
	ExportedAt string `yaml:"exported_at"`
}

type MarkdownExporter struct{}

func NewMarkdownExporter() storyout.Exporter {
	return MarkdownExporter{}
}

func (MarkdownExporter) Export(_ context.Context, story domain.Story, exportedAt time.Time, dir string) (string, error) {
	title := story.Title
	if title == "" {
		title = "Untitled"
	}
	meta := exportFrontmatter{
		ID:         story.ID,
		Title:      title,
		Genre:      story.Genre,
		Status:     string(story.Status),
		CreatedAt:  stamp(story.CreatedAt),
		UpdatedAt:  stamp(story.UpdatedAt),
		ExportedAt: stamp(exportedAt),
	}
	body := "# " + title + "\n\n" + strings.TrimSpace(story.Plot) + "\n"
	content, err := markdown.Render(meta, body)
	if err != nil {
		return "", fmt.Errorf("render story %s: %w", story.ID, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, slug.FileName(title, story.ID))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
