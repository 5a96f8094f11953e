package usecase_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sessionadapter "odysseus/internal/modules/session/adapter/out"
	sessiondto "odysseus/internal/modules/session/dto"
	sessionin "odysseus/internal/modules/session/port/in"
	sessionusecase "odysseus/internal/modules/session/usecase"
	storyadapter "odysseus/internal/modules/story/adapter/out"
	"odysseus/internal/modules/story/domain"
	storydto "odysseus/internal/modules/story/dto"
	storyin "odysseus/internal/modules/story/port/in"
	"odysseus/internal/modules/story/service"
	"odysseus/internal/modules/story/usecase"
	"odysseus/internal/platform/clock"
	apperrors "odysseus/internal/platform/errors"
)

type fakeAPI struct {
	created     domain.Created
	createErr   error
	stories     []domain.Story
	listErr     error
	story       domain.Story
	createCalls int
	listCalls   int
	deleted     []string
	lastToken   string
	lastParams  domain.CreateParams
}

func (f *fakeAPI) Create(_ context.Context, token string, params domain.CreateParams) (domain.Created, error) {
	f.createCalls++
	f.lastToken = token
	f.lastParams = params
	return f.created, f.createErr
}
func (f *fakeAPI) List(context.Context, string) ([]domain.Story, error) {
	f.listCalls++
	return f.stories, f.listErr
}
func (f *fakeAPI) Get(_ context.Context, _ string, id string) (domain.Story, error) {
	s := f.story
	s.ID = id
	return s, nil
}
func (f *fakeAPI) Delete(_ context.Context, _ string, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}
func (f *fakeAPI) AddCollaborators(context.Context, string, string, []string) error { return nil }
func (f *fakeAPI) ListUsers(context.Context, string) ([]domain.Member, error) {
	return []domain.Member{{ID: "u2", Name: "Bo"}}, nil
}

type fixture struct {
	api     *fakeAPI
	session sessionin.Usecase
	uc      storyin.Usecase
}

func newFixture(t *testing.T, signedIn bool) fixture {
	t.Helper()
	store := sessionadapter.NewMemoryStore()
	session := sessionusecase.NewInteractor(store, store, nil)
	if signedIn {
		require.NoError(t, session.Set(context.Background(), sessiondto.SetInput{Token: "tok1", UserID: "u1", Name: "Ann"}))
	}
	index, err := storyadapter.NewSQLiteStoryIndex(filepath.Join(t.TempDir(), "stories.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	api := &fakeAPI{}
	clk := clock.Fixed(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	svc := service.NewStoryService(api, index, storyadapter.NewMarkdownExporter(), clk, nil)
	return fixture{api: api, session: session, uc: usecase.NewInteractor(svc, session, "http://web.test/", nil)}
}

func validInput() storydto.CreateInput {
	in := storydto.NewCreateInput()
	in.Genre, in.Style, in.Ending, in.InitialInput = "fantasy", "cyberpunk", "happy", "test"
	return in
}

func TestCreateValidatesBeforeAnyCall(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	in := validInput()
	in.Genre = ""
	in.Romance = 42

	_, err := f.uc.Create(context.Background(), in)
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Message("genre"))
	assert.NotEmpty(t, verr.Message("romance"))
	assert.Zero(t, f.api.createCalls)
}

func TestCreateWithoutSessionMakesNoCall(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)
	_, err := f.uc.Create(context.Background(), validInput())
	require.ErrorIs(t, err, apperrors.ErrNoSession)
	assert.True(t, apperrors.IsAuth(err))
	assert.Zero(t, f.api.createCalls)
}

func TestCreatePersistsCurrentStory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, true)
	f.api.created = domain.Created{ID: "abc", Title: "T", FirstPart: "Once...", Status: domain.StatusDraft}

	out, err := f.uc.Create(ctx, validInput())
	require.NoError(t, err)
	assert.Equal(t, storydto.CreatedOutput{StoryID: "abc", Title: "T", FirstPart: "Once...", Status: "draft"}, out)
	assert.Equal(t, "tok1", f.api.lastToken)
	assert.Equal(t, domain.DefaultTone(), f.api.lastParams.Tone)
	assert.Equal(t, "abc", f.session.CurrentStory(ctx))
}

func TestCreateUnauthorizedClearsSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, true)
	f.api.createErr = apperrors.NewHTTPError(401, "", apperrors.ErrUnauthenticated)

	_, err := f.uc.Create(ctx, validInput())
	require.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	assert.False(t, f.session.Current(ctx).Present)
}

func TestCreateServerFieldErrorsKeepSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, true)
	verr := &apperrors.ValidationError{}
	verr.Add("genre", "unsupported genre")
	f.api.createErr = verr

	_, err := f.uc.Create(ctx, validInput())
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.True(t, f.session.Current(ctx).Present)
	assert.Empty(t, f.session.CurrentStory(ctx))
}

func TestListRefreshesIndexForOfflineUse(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, true)
	f.api.stories = []domain.Story{{ID: "abc", Title: "T", Genre: "fantasy", Status: domain.StatusEnd}}

	online, err := f.uc.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, online.Stories, 1)
	assert.True(t, online.Stories[0].Terminal)

	offline, err := f.uc.List(ctx, true)
	require.NoError(t, err)
	assert.True(t, offline.Offline)
	assert.Equal(t, 1, f.api.listCalls)
	require.Len(t, offline.Stories, 1)
	assert.Equal(t, "abc", offline.Stories[0].ID)
	assert.True(t, offline.SyncedAt.Equal(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)))
}

func TestDeleteForgetsCurrentStory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, true)
	require.NoError(t, f.session.SetCurrentStory(ctx, "abc"))

	require.NoError(t, f.uc.Delete(ctx, "abc"))
	assert.Equal(t, []string{"abc"}, f.api.deleted)
	assert.Empty(t, f.session.CurrentStory(ctx))
}

func TestGetAndExportFallBackToCurrentStory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, true)
	f.api.story = domain.Story{Title: "The Lantern", Status: domain.StatusInProgress, Plot: "Once."}

	_, err := f.uc.Get(ctx, "")
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)

	require.NoError(t, f.session.SetCurrentStory(ctx, "abc"))
	story, err := f.uc.Get(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "abc", story.ID)

	out, err := f.uc.Export(ctx, "", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "the-lantern-abc.md", filepath.Base(out.Path))
}

func TestShareUsesCurrentStoryWithoutBackend(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)

	_, err := f.uc.Share(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	require.NoError(t, f.session.SetCurrentStory(context.Background(), "s9"))
	out, err := f.uc.Share(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "http://web.test/stories/s9", out.Link)
	assert.True(t, strings.HasSuffix(out.Text, " "+out.Link))
	assert.Zero(t, f.api.listCalls)
}
