// Package backendtest runs an in-memory storytelling backend for tests.
package backendtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

type User struct {
	ID       string
	Name     string
	Email    string
	Password string
}

type Story struct {
	ID            string
	Title         string
	Genre         string
	Status        string
	Plot          string
	OwnerID       string
	Collaborators []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type override struct {
	status int
	body   string
}

// Backend is a fake of the remote API. Routes are keyed "METHOD pattern",
// e.g. "GET /auth/verify/".
type Backend struct {
	server *httptest.Server

	mu             sync.Mutex
	users          map[string]User   // by email
	tokens         map[string]string // token -> email
	stories        map[string]*Story
	order          []string
	nextStory      int
	options        []string
	continuePart   string
	continueStatus string
	overrides      map[string]override
	calls          map[string]int
	headers        map[string]http.Header
	queries        map[string]url.Values
	bodies         map[string][]byte
	hold           map[string]chan struct{}
}

func New(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		users:          map[string]User{},
		tokens:         map[string]string{},
		stories:        map[string]*Story{},
		options:        []string{"Follow the lantern", "Return to the ship", "Wake the oracle"},
		continuePart:   "The fog parts.",
		continueStatus: "in-progress",
		overrides:      map[string]override{},
		calls:          map[string]int{},
		headers:        map[string]http.Header{},
		queries:        map[string]url.Values{},
		bodies:         map[string][]byte{},
		hold:           map[string]chan struct{}{},
	}
	r := chi.NewRouter()
	b.route(r, http.MethodPost, "/login", b.login)
	b.route(r, http.MethodPost, "/signup/", b.signup)
	b.route(r, http.MethodGet, "/auth/verify/", b.authed(b.verify))
	b.route(r, http.MethodGet, "/user", b.authed(b.currentUser))
	b.route(r, http.MethodPost, "/logout", b.logout)
	b.route(r, http.MethodGet, "/users/", b.authed(b.listUsers))
	b.route(r, http.MethodPost, "/stories/new/", b.authed(b.createStory))
	b.route(r, http.MethodGet, "/stories/user/", b.authed(b.listStories))
	b.route(r, http.MethodGet, "/stories/{id}", b.authed(b.getStory))
	b.route(r, http.MethodDelete, "/stories/{id}", b.authed(b.deleteStory))
	b.route(r, http.MethodPost, "/stories/{id}/collaborators", b.authed(b.addCollaborators))
	b.route(r, http.MethodGet, "/get-story-options/", b.authed(b.storyOptions))
	b.route(r, http.MethodPost, "/continue-story/", b.continueStory)
	b.server = httptest.NewServer(r)
	t.Cleanup(b.server.Close)
	return b
}

func (b *Backend) URL() string { return b.server.URL }

// AddUser registers a user and, when token is non-empty, a live token for it.
func (b *Backend) AddUser(u User, token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[u.Email] = u
	if token != "" {
		b.tokens[token] = u.Email
	}
}

func (b *Backend) AddStory(s Story) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = s.CreatedAt
	}
	story := s
	b.stories[s.ID] = &story
	b.order = append(b.order, s.ID)
}

func (b *Backend) Story(id string) (Story, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.stories[id]
	if !ok {
		return Story{}, false
	}
	return *s, true
}

func (b *Backend) SetOptions(options ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.options = options
}

func (b *Backend) SetContinuation(part, status string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.continuePart = part
	b.continueStatus = status
}

// Respond makes route answer with status and a raw body until Reset.
func (b *Backend) Respond(route string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.overrides[route] = override{status: status, body: body}
}

func (b *Backend) Reset(route string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.overrides, route)
}

// Hold blocks requests to route until the returned release func is called.
func (b *Backend) Hold(route string) (release func()) {
	ch := make(chan struct{})
	b.mu.Lock()
	b.hold[route] = ch
	b.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.hold, route)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *Backend) Calls(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

func (b *Backend) LastHeader(route string) http.Header {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.headers[route]
}

func (b *Backend) LastQuery(route string) url.Values {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queries[route]
}

func (b *Backend) LastBody(route string) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bodies[route]
}

func (b *Backend) route(r chi.Router, method, pattern string, h http.HandlerFunc) {
	key := method + " " + pattern
	r.MethodFunc(method, pattern, func(w http.ResponseWriter, req *http.Request) {
		var body []byte
		if req.Body != nil {
			body, _ = readAll(req)
		}
		b.mu.Lock()
		b.calls[key]++
		b.headers[key] = req.Header.Clone()
		b.queries[key] = req.URL.Query()
		b.bodies[key] = body
		ov, overridden := b.overrides[key]
		held := b.hold[key]
		b.mu.Unlock()

		if held != nil {
			select {
			case <-held:
			case <-req.Context().Done():
				return
			}
		}
		if overridden {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(ov.status)
			_, _ = w.Write([]byte(ov.body))
			return
		}
		req.Body = nopBody(body)
		h(w, req)
	})
}

func (b *Backend) authed(next func(http.ResponseWriter, *http.Request, User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		b.mu.Lock()
		email, ok := b.tokens[token]
		user := b.users[email]
		b.mu.Unlock()
		if token == "" || !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
			return
		}
		next(w, r, user)
	}
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "invalid body"})
		return
	}
	b.mu.Lock()
	user, ok := b.users[in.Email]
	var token string
	if ok && user.Password == in.Password {
		for t, email := range b.tokens {
			if email == in.Email {
				token = t
				break
			}
		}
		if token == "" {
			token = "token-" + user.ID
			b.tokens[token] = user.Email
		}
	}
	b.mu.Unlock()
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect email or password"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"user":         userJSON(user),
	})
}

func (b *Backend) signup(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "invalid body"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.users[in.Email]; exists {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Email already registered"})
		return
	}
	user := User{ID: fmt.Sprintf("DOC%03d", len(b.users)+1), Name: in.Name, Email: in.Email, Password: in.Password}
	b.users[in.Email] = user
	writeJSON(w, http.StatusOK, userJSON(user))
}

func (b *Backend) verify(w http.ResponseWriter, _ *http.Request, user User) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "valid", "user": userJSON(user)})
}

func (b *Backend) currentUser(w http.ResponseWriter, _ *http.Request, user User) {
	writeJSON(w, http.StatusOK, userJSON(user))
}

func (b *Backend) logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie("access_token"); err == nil {
		b.mu.Lock()
		delete(b.tokens, cookie.Value)
		b.mu.Unlock()
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

func (b *Backend) listUsers(w http.ResponseWriter, _ *http.Request, _ User) {
	b.mu.Lock()
	out := make([]map[string]any, 0, len(b.users))
	for _, u := range b.users {
		out = append(out, userJSON(u))
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) createStory(w http.ResponseWriter, r *http.Request, user User) {
	var in map[string]any
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "invalid body"})
		return
	}
	var missing []map[string]any
	for _, field := range []string{"genre", "style", "ending", "initial_input"} {
		if s, _ := in[field].(string); s == "" {
			missing = append(missing, map[string]any{"loc": []string{"body", field}, "msg": "field required"})
		}
	}
	if len(missing) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": missing})
		return
	}
	genre, _ := in["genre"].(string)

	b.mu.Lock()
	b.nextStory++
	id := fmt.Sprintf("story-%d", b.nextStory)
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	story := &Story{
		ID:        id,
		Title:     "A " + genre + " tale",
		Genre:     genre,
		Status:    "draft",
		Plot:      "Once upon a time.",
		OwnerID:   user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.stories[id] = story
	b.order = append(b.order, id)
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"story_id":    story.ID,
		"story_title": story.Title,
		"first_part":  story.Plot,
		"status":      story.Status,
	})
}

func (b *Backend) listStories(w http.ResponseWriter, _ *http.Request, user User) {
	b.mu.Lock()
	out := make([]map[string]any, 0, len(b.order))
	for _, id := range b.order {
		s := b.stories[id]
		if s == nil || (s.OwnerID != "" && s.OwnerID != user.ID && !contains(s.Collaborators, user.ID)) {
			continue
		}
		out = append(out, map[string]any{
			"id":        s.ID,
			"title":     s.Title,
			"genre":     s.Genre,
			"status":    s.Status,
			"createdAt": s.CreatedAt,
			"updatedAt": s.UpdatedAt,
		})
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) getStory(w http.ResponseWriter, r *http.Request, _ User) {
	b.mu.Lock()
	s, ok := b.stories[chi.URLParam(r, "id")]
	var payload map[string]any
	if ok {
		payload = map[string]any{
			"id":        s.ID,
			"title":     s.Title,
			"genre":     s.Genre,
			"status":    s.Status,
			"plot":      s.Plot,
			"createdAt": s.CreatedAt,
			"updatedAt": s.UpdatedAt,
		}
	}
	b.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Story not found"})
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (b *Backend) deleteStory(w http.ResponseWriter, r *http.Request, _ User) {
	id := chi.URLParam(r, "id")
	b.mu.Lock()
	_, ok := b.stories[id]
	delete(b.stories, id)
	b.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Story not found or not authorized"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Story deleted successfully"})
}

func (b *Backend) addCollaborators(w http.ResponseWriter, r *http.Request, _ User) {
	var in struct {
		UserIDs []string `json:"user_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "invalid body"})
		return
	}
	b.mu.Lock()
	s, ok := b.stories[chi.URLParam(r, "id")]
	if ok {
		s.Collaborators = append(s.Collaborators, in.UserIDs...)
	}
	b.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Story not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Collaborators added"})
}

func (b *Backend) storyOptions(w http.ResponseWriter, _ *http.Request, _ User) {
	b.mu.Lock()
	options := append([]string(nil), b.options...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"options": options})
}

func (b *Backend) continueStory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	b.mu.Lock()
	s, ok := b.stories[q.Get("story_id")]
	part, status := b.continuePart, b.continueStatus
	if ok {
		s.Plot += "\n\n" + part
		s.Status = status
	}
	b.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Story not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"plot": part, "status": status})
}

func userJSON(u User) map[string]any {
	return map[string]any{"id": u.ID, "name": u.Name, "email": u.Email}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
