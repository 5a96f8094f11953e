package domain

import "errors"

const SchemaVersion = 1

var (
	errEmptyToken = errors.New("session token is required")
	errNoUserID   = errors.New("session user id is required")
)

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session is the persisted credential. A user is only ever stored together
// with the token it was validated against.
type Session struct {
	Version int    `json:"version"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

func NewSession(token string, user User) (Session, error) {
	if token == "" {
		return Session{}, errEmptyToken
	}
	if user.ID == "" {
		return Session{}, errNoUserID
	}
	return Session{Version: SchemaVersion, Token: token, User: user}, nil
}

func (s Session) Valid() bool {
	return s.Token != "" && s.User.ID != ""
}

// Navigation is client-side routing state that outlives a single run: the
// story being played and the view a guarded redirect interrupted.
type Navigation struct {
	Version        int    `json:"version"`
	CurrentStoryID string `json:"current_story_id,omitempty"`
	RememberedView string `json:"remembered_view,omitempty"`
}
