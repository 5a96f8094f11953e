package out_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	progressionadapter "odysseus/internal/modules/progression/adapter/out"
	progressionout "odysseus/internal/modules/progression/port/out"
	storydomain "odysseus/internal/modules/story/domain"
	"odysseus/internal/platform/backendtest"
	apperrors "odysseus/internal/platform/errors"
	"odysseus/internal/platform/httpapi"
)

const (
	optionsRoute  = "GET /get-story-options/"
	continueRoute = "POST /continue-story/"
)

func newAPI(t *testing.T, submitBearer bool) (*backendtest.Backend, progressionout.API) {
	t.Helper()
	backend := backendtest.New(t)
	backend.AddUser(backendtest.User{ID: "u1", Name: "Ann", Email: "ann@example.com", Password: "secret1"}, "tok1")
	backend.AddStory(backendtest.Story{ID: "abc", Title: "The Lantern", Status: "in-progress", Plot: "Once.", OwnerID: "u1"})
	return backend, progressionadapter.NewHTTPAPI(httpapi.NewClient(backend.URL(), time.Second, nil), submitBearer)
}

func TestOptionsSendsIdentityAndToken(t *testing.T) {
	t.Parallel()
	backend, api := newAPI(t, true)
	backend.SetOptions("a", "b", "a")

	set, err := api.Options(context.Background(), "tok1", "u1", "abc")
	require.NoError(t, err)
	assert.False(t, set.Malformed)
	assert.Equal(t, []string{"a", "b", "a"}, set.Options)
	assert.Equal(t, "abc", backend.LastQuery(optionsRoute).Get("story_id"))
	assert.Equal(t, "u1", backend.LastQuery(optionsRoute).Get("user_id"))
	assert.Equal(t, "Bearer tok1", backend.LastHeader(optionsRoute).Get("Authorization"))
}

func TestOptionsMalformedPayloads(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"missing key":   `{"choices":["a"]}`,
		"null options":  `{"options":null}`,
		"wrong type":    `{"options":"a"}`,
		"not json":      `surprise`,
		"list of lists": `{"options":[["a"]]}`,
	}
	for name, body := range cases {
		body := body
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			backend, api := newAPI(t, true)
			backend.Respond(optionsRoute, 200, body)

			set, err := api.Options(context.Background(), "tok1", "u1", "abc")
			require.NoError(t, err)
			assert.True(t, set.Malformed)
			assert.Empty(t, set.Options)
		})
	}
}

func TestOptionsEmptyListIsNotMalformed(t *testing.T) {
	t.Parallel()
	backend, api := newAPI(t, true)
	backend.Respond(optionsRoute, 200, `{"options":[]}`)

	set, err := api.Options(context.Background(), "tok1", "u1", "abc")
	require.NoError(t, err)
	assert.False(t, set.Malformed)
	assert.Empty(t, set.Options)
}

func TestOptionsUnauthorized(t *testing.T) {
	t.Parallel()
	_, api := newAPI(t, true)
	_, err := api.Options(context.Background(), "stale", "u1", "abc")
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestSubmitSendsChoiceAsQuery(t *testing.T) {
	t.Parallel()
	backend, api := newAPI(t, true)
	backend.SetContinuation("The fog parts.", "END")

	cont, err := api.Submit(context.Background(), "tok1", "u1", "abc", 2)
	require.NoError(t, err)
	assert.Equal(t, "The fog parts.", cont.Segment)
	assert.Equal(t, storydomain.StatusEnd, cont.Status)

	q := backend.LastQuery(continueRoute)
	assert.Equal(t, "2", q.Get("choice"))
	assert.Equal(t, "abc", q.Get("story_id"))
	assert.Equal(t, "u1", q.Get("user_id"))
	assert.Equal(t, "Bearer tok1", backend.LastHeader(continueRoute).Get("Authorization"))
}

func TestSubmitWithoutBearer(t *testing.T) {
	t.Parallel()
	backend, api := newAPI(t, false)

	_, err := api.Submit(context.Background(), "tok1", "u1", "abc", 1)
	require.NoError(t, err)
	assert.Empty(t, backend.LastHeader(continueRoute).Get("Authorization"))
}

func TestSubmitReadsNextPartAndMissingStatus(t *testing.T) {
	t.Parallel()
	backend, api := newAPI(t, true)
	backend.Respond(continueRoute, 200, `{"next_part":"A door opens."}`)

	cont, err := api.Submit(context.Background(), "tok1", "u1", "abc", 1)
	require.NoError(t, err)
	assert.Equal(t, "A door opens.", cont.Segment)
	assert.Empty(t, cont.Status)
}

func TestSubmitEmptyBodyFails(t *testing.T) {
	t.Parallel()
	backend, api := newAPI(t, true)
	backend.Respond(continueRoute, 200, `{}`)

	_, err := api.Submit(context.Background(), "tok1", "u1", "abc", 1)
	assert.ErrorIs(t, err, apperrors.ErrRequestFailed)
}
