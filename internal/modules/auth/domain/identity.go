package domain

import "time"

type Identity struct {
	ID    string
	Name  string
	Email string
}

type LoginResult struct {
	Token string
	User  Identity
}

// Claims are read from a bearer token without verifying its signature; the
// backend remains the only authority on validity.
type Claims struct {
	Subject   string
	UserID    string
	Name      string
	Email     string
	ExpiresAt time.Time
}

// Identity builds a user identity from the claims. ok is false when the
// claims carry no user id.
func (c Claims) Identity() (Identity, bool) {
	if c.UserID == "" {
		return Identity{}, false
	}
	email := c.Email
	if email == "" && emailPattern.MatchString(c.Subject) {
		email = c.Subject
	}
	return Identity{ID: c.UserID, Name: c.Name, Email: email}, true
}

func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeAllowed
	OutcomeDenied
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAllowed:
		return "allowed"
	case OutcomeDenied:
		return "denied"
	default:
		return "unknown"
	}
}
