package in

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	authdto "odysseus/internal/modules/auth/dto"
	authin "odysseus/internal/modules/auth/port/in"
)

const callbackPage = `<!doctype html><html><body><p>%s</p><p>You can close this window and return to the terminal.</p></body></html>`

type callbackResult struct {
	out authdto.CallbackOutput
	err error
}

// OAuthReceiver listens on a loopback address for the OAuth redirect that
// carries the backend-issued access token.
type OAuthReceiver struct {
	usecase authin.Usecase
	addr    string
}

func NewOAuthReceiver(usecase authin.Usecase, addr string) OAuthReceiver {
	return OAuthReceiver{usecase: usecase, addr: addr}
}

// Listen binds the callback address and returns the callback URL. The
// returned await func blocks until a callback arrives or wait elapses
// (or ctx ends), then stops the listener.
func (r OAuthReceiver) Listen(ctx context.Context, wait time.Duration) (string, func() (authdto.CallbackOutput, error), error) {
	listener, err := net.Listen("tcp", r.addr)
	if err != nil {
		return "", nil, fmt.Errorf("listen for oauth callback on %s: %w", r.addr, err)
	}
	results := make(chan callbackResult, 1)

	router := chi.NewRouter()
	handle := func(w http.ResponseWriter, req *http.Request) {
		out, err := r.usecase.OAuthCallback(context.WithoutCancel(req.Context()), req.URL.Query().Get("access_token"))
		status, message := http.StatusOK, "Signed in."
		switch {
		case err != nil:
			status, message = http.StatusBadRequest, "Sign-in failed."
		case out.Next == authdto.NextAuth:
			status, message = http.StatusBadRequest, "No access token was received."
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_, _ = fmt.Fprintf(w, callbackPage, message)
		select {
		case results <- callbackResult{out: out, err: err}:
		default:
		}
	}
	router.Get("/auth/google/callback", handle)
	router.Get("/callback", handle)

	server := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case results <- callbackResult{err: fmt.Errorf("oauth callback server: %w", err)}:
			default:
			}
		}
	}()

	callbackURL := "http://" + listener.Addr().String() + "/auth/google/callback"
	await := func() (authdto.CallbackOutput, error) {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case res := <-results:
			return res.out, res.err
		case <-timer.C:
			return authdto.CallbackOutput{Next: authdto.NextAuth}, fmt.Errorf("no oauth callback within %s", wait)
		case <-ctx.Done():
			return authdto.CallbackOutput{Next: authdto.NextAuth}, ctx.Err()
		}
	}
	return callbackURL, await, nil
}
