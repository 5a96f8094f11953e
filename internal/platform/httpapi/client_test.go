package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "odysseus/internal/platform/errors"
	"odysseus/internal/platform/httpapi"
	"odysseus/internal/platform/id"
)

func newServer(t *testing.T, register func(r chi.Router)) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestJSONSendsBearerRequestIDAndQuery(t *testing.T) {
	t.Parallel()
	var gotAuth, gotRequestID, gotStory string
	srv := newServer(t, func(r chi.Router) {
		r.Get("/get-story-options/", func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotRequestID = r.Header.Get(httpapi.RequestIDHeader)
			gotStory = r.URL.Query().Get("story_id")
			_, _ = w.Write([]byte(`{"options":["a","b"]}`))
		})
	})
	client := httpapi.NewClient(srv.URL+"/", time.Second, nil).WithRequestIDs(&id.Sequence{Prefix: "req"})

	var out struct {
		Options []string `json:"options"`
	}
	err := client.JSON(context.Background(), httpapi.Request{
		Method: http.MethodGet,
		Path:   "/get-story-options/",
		Query:  url.Values{"story_id": {"abc"}},
		Bearer: "tok1",
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out.Options)
	assert.Equal(t, "Bearer tok1", gotAuth)
	assert.Equal(t, "req-1", gotRequestID)
	assert.Equal(t, "abc", gotStory)
}

func TestErrMapsStatusesOntoTaxonomy(t *testing.T) {
	t.Parallel()
	srv := newServer(t, func(r chi.Router) {
		r.Get("/unauthorized", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Invalid token"}`))
		})
		r.Get("/missing", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"Story not found"}`))
		})
		r.Get("/broken", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"detail":"boom"}`))
		})
	})
	client := httpapi.NewClient(srv.URL, time.Second, nil)
	ctx := context.Background()

	err := client.JSON(ctx, httpapi.Request{Method: http.MethodGet, Path: "/unauthorized"}, nil)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)

	err = client.JSON(ctx, httpapi.Request{Method: http.MethodGet, Path: "/missing"}, nil)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	err = client.JSON(ctx, httpapi.Request{Method: http.MethodGet, Path: "/broken"}, nil)
	assert.ErrorIs(t, err, apperrors.ErrRequestFailed)
	var herr *apperrors.HTTPError
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, "boom", herr.Message)
}

func TestUnprocessableEntityBecomesFieldErrors(t *testing.T) {
	t.Parallel()
	cases := map[string]struct {
		body  string
		field string
		msg   string
	}{
		"fastapi detail list": {`{"detail":[{"loc":["body","genre"],"msg":"field required","type":"value_error.missing"}]}`, "genre", "field required"},
		"errors map":          {`{"errors":{"ending":"must not be empty"}}`, "ending", "must not be empty"},
		"errors map of lists": {`{"errors":{"style":["too short","unknown"]}}`, "style", "too short, unknown"},
	}
	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			resp := &httpapi.Response{Status: http.StatusUnprocessableEntity, Body: []byte(tc.body)}
			err := resp.Err()
			require.ErrorIs(t, err, apperrors.ErrInvalidInput)
			var verr *apperrors.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tc.msg, verr.Message(tc.field))
		})
	}
}

func TestTimeoutMapsToErrTimeout(t *testing.T) {
	t.Parallel()
	srv := newServer(t, func(r chi.Router) {
		r.Get("/slow", func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		})
	})
	client := httpapi.NewClient(srv.URL, 50*time.Millisecond, nil)

	err := client.JSON(context.Background(), httpapi.Request{Method: http.MethodGet, Path: "/slow"}, nil)
	require.ErrorIs(t, err, apperrors.ErrTimeout)
	assert.Equal(t, "Request timed out. Please try again.", apperrors.UserMessage(err))
}

func TestIDAcceptsStringsAndNumbers(t *testing.T) {
	t.Parallel()
	var payload struct {
		A httpapi.ID `json:"a"`
		B httpapi.ID `json:"b"`
		C httpapi.ID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"abc","b":42,"c":null}`), &payload))
	assert.Equal(t, httpapi.ID("abc"), payload.A)
	assert.Equal(t, httpapi.ID("42"), payload.B)
	assert.Equal(t, httpapi.ID(""), payload.C)
}

func TestTimeAcceptsZonelessISO(t *testing.T) {
	t.Parallel()
	var payload struct {
		A httpapi.Time `json:"a"`
		B httpapi.Time `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"2024-01-02T03:04:05.123000","b":"2024-01-02T03:04:05Z"}`), &payload))
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 123000000, time.UTC), payload.A.Time)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), payload.B.Time)
}

func TestOversizedBodyIsRejected(t *testing.T) {
	t.Parallel()
	srv := newServer(t, func(r chi.Router) {
		r.Get("/big", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"plot":"` + strings.Repeat("x", 64) + `"}`))
		})
	})
	client := httpapi.NewClient(srv.URL, time.Second, nil).WithMaxBody(32)

	_, err := client.Do(context.Background(), httpapi.Request{Method: http.MethodGet, Path: "/big"})
	require.ErrorIs(t, err, apperrors.ErrRequestFailed)
	assert.Contains(t, err.Error(), "exceeds 32 bytes")

	client.WithMaxBody(httpapi.DefaultMaxBody)
	resp, err := client.Do(context.Background(), httpapi.Request{Method: http.MethodGet, Path: "/big"})
	require.NoError(t, err)
	assert.True(t, resp.OK())
}

func TestSendTreatsAnySuccessAsValid(t *testing.T) {
	t.Parallel()
	srv := newServer(t, func(r chi.Router) {
		r.Get("/empty", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
		r.Get("/text", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
		r.Get("/json", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"status":"valid"}`)) })
		r.Get("/gone", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusUnauthorized) })
	})
	client := httpapi.NewClient(srv.URL, time.Second, nil)
	ctx := context.Background()

	for _, path := range []string{"/empty", "/text"} {
		var out struct {
			Status string `json:"status"`
		}
		require.NoError(t, client.Send(ctx, httpapi.Request{Method: http.MethodGet, Path: path}, &out), path)
		assert.Empty(t, out.Status, path)
	}

	var out struct {
		Status string `json:"status"`
	}
	require.NoError(t, client.Send(ctx, httpapi.Request{Method: http.MethodGet, Path: "/json"}, &out))
	assert.Equal(t, "valid", out.Status)

	err := client.Send(ctx, httpapi.Request{Method: http.MethodGet, Path: "/gone"}, &out)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}
