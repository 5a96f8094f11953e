package dto

type SetInput struct {
	Token  string
	UserID string
	Name   string
	Email  string
}

// SessionOutput is the read model of the session. Present is false for the
// absent session; the other fields are then empty.
type SessionOutput struct {
	Present bool
	Token   string
	UserID  string
	Name    string
	Email   string
}
