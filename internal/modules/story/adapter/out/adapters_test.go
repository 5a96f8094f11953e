package out_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storyadapter "odysseus/internal/modules/story/adapter/out"
	"odysseus/internal/modules/story/domain"
	"odysseus/internal/platform/backendtest"
	apperrors "odysseus/internal/platform/errors"
	"odysseus/internal/platform/httpapi"
	"odysseus/internal/platform/markdown"
)

func newAPI(t *testing.T) (*backendtest.Backend, *storyadapter.HTTPAPI) {
	t.Helper()
	backend := backendtest.New(t)
	backend.AddUser(backendtest.User{ID: "u1", Name: "Ann", Email: "ann@example.com", Password: "secret1"}, "tok1")
	api := storyadapter.NewHTTPAPI(httpapi.NewClient(backend.URL(), time.Second, nil)).(*storyadapter.HTTPAPI)
	return backend, api
}

func TestHTTPAPICreateSendsFormAsJSON(t *testing.T) {
	t.Parallel()
	backend, api := newAPI(t)
	params := domain.CreateParams{Genre: "fantasy", Style: "cyberpunk", Ending: "happy", InitialInput: "test", Tone: domain.DefaultTone()}

	created, err := api.Create(context.Background(), "tok1", params)
	require.NoError(t, err)
	assert.Equal(t, "story-1", created.ID)
	assert.Equal(t, domain.StatusDraft, created.Status)
	assert.Equal(t, "Once upon a time.", created.FirstPart)
	assert.JSONEq(t, `{"genre":"fantasy","style":"cyberpunk","ending":"happy","initial_input":"test",
		"brutality":5,"emotion":5,"suspense":5,"humor":5,"romance":5,"intensity":5,"mystery":5}`,
		string(backend.LastBody("POST /stories/new/")))
}

func TestHTTPAPICreateSurfacesFieldErrors(t *testing.T) {
	t.Parallel()
	backend, api := newAPI(t)
	backend.Respond("POST /stories/new/", 422, `{"detail":[{"loc":["body","genre"],"msg":"unsupported genre"}]}`)

	_, err := api.Create(context.Background(), "tok1", domain.CreateParams{Genre: "x", Style: "y", Ending: "z", InitialInput: "w"})
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "unsupported genre", verr.Message("genre"))
}

func TestHTTPAPICreateRequiresStoryID(t *testing.T) {
	t.Parallel()
	backend, api := newAPI(t)
	backend.Respond("POST /stories/new/", 200, `{"story_title":"Untitled","first_part":"Once."}`)

	_, err := api.Create(context.Background(), "tok1", domain.CreateParams{Genre: "x", Style: "y", Ending: "z", InitialInput: "w"})
	assert.ErrorIs(t, err, apperrors.ErrRequestFailed)
}

func TestHTTPAPIListGetDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	backend, api := newAPI(t)
	backend.AddStory(backendtest.Story{ID: "abc", Title: "The Lantern", Genre: "fantasy", Status: "END", Plot: "It ended.", OwnerID: "u1"})

	stories, err := api.List(ctx, "tok1")
	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.True(t, stories[0].Status.Terminal())
	assert.False(t, stories[0].CreatedAt.IsZero())

	story, err := api.Get(ctx, "tok1", "abc")
	require.NoError(t, err)
	assert.Equal(t, "It ended.", story.Plot)

	require.NoError(t, api.Delete(ctx, "tok1", "abc"))
	_, err = api.Get(ctx, "tok1", "abc")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = api.List(ctx, "expired")
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestHTTPAPICollaboratorsAndUsers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	backend, api := newAPI(t)
	backend.AddStory(backendtest.Story{ID: "abc", Title: "T", Genre: "g", Status: "draft", OwnerID: "u1"})

	require.NoError(t, api.AddCollaborators(ctx, "tok1", "abc", []string{"u2"}))
	story, ok := backend.Story("abc")
	require.True(t, ok)
	assert.Equal(t, []string{"u2"}, story.Collaborators)

	users, err := api.ListUsers(ctx, "tok1")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "ann@example.com", users[0].Email)
}

func TestSQLiteStoryIndexReplacesPerOwner(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	index, err := storyadapter.NewSQLiteStoryIndex(filepath.Join(t.TempDir(), "stories.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	synced := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	created := time.Date(2025, 2, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, index.Replace(ctx, "u1", []domain.Story{
		{ID: "b", Title: "Second", Genre: "noir", Status: domain.StatusPending, CreatedAt: created},
		{ID: "a", Title: "First", Genre: "fantasy", Status: domain.Status("completed")},
	}, synced))
	require.NoError(t, index.Replace(ctx, "u2", []domain.Story{{ID: "z", Title: "Other", Genre: "x", Status: domain.StatusDraft}}, synced))

	stories, syncedAt, err := index.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, stories, 2)
	assert.Equal(t, "b", stories[0].ID, "backend order is kept")
	assert.True(t, stories[0].CreatedAt.Equal(created))
	assert.Equal(t, domain.Status("completed"), stories[1].Status)
	assert.True(t, syncedAt.Equal(synced))

	require.NoError(t, index.Replace(ctx, "u1", []domain.Story{{ID: "a", Title: "First", Genre: "fantasy", Status: domain.StatusEnd}}, synced))
	stories, _, err = index.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, stories, 1)

	require.NoError(t, index.Remove(ctx, "u1", "a"))
	stories, _, err = index.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, stories)

	stories, _, err = index.List(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, stories, 1)
}

func TestMarkdownExporterWritesFrontmatter(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	story := domain.Story{ID: "abc", Title: "The Lantern", Genre: "fantasy", Status: domain.StatusEnd, Plot: "Once upon a time."}
	exportedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	path, err := storyadapter.NewMarkdownExporter().Export(context.Background(), story, exportedAt, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "the-lantern-abc.md"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var meta struct {
		ID         string `yaml:"id"`
		Status     string `yaml:"status"`
		ExportedAt string `yaml:"exported_at"`
	}
	body, err := markdown.Split(string(raw), &meta)
	require.NoError(t, err)
	assert.Equal(t, "abc", meta.ID)
	assert.Equal(t, "end", meta.Status)
	assert.Equal(t, "2025-03-01T12:00:00Z", meta.ExportedAt)
	assert.Contains(t, body, "# The Lantern\n\nOnce upon a time.")
}
