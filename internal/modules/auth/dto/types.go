package dto

import "time"

// Route names returned by the credential flow.
const (
	NextDashboard = "dashboard"
	NextAuth      = "auth"
)

type LoginInput struct {
	Email    string
	Password string
}

type SignupInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

type UserOutput struct {
	ID    string
	Name  string
	Email string
}

type SignupOutput struct {
	User    UserOutput
	Message string
}

type CallbackOutput struct {
	// Next is the view to show: a remembered view, NextDashboard or NextAuth.
	Next string
	User UserOutput
}

// GateResult is the settled outcome of a gate check.
type GateResult struct {
	Allowed bool
	User    UserOutput
	Reason  string
}

type StatusOutput struct {
	SignedIn  bool
	Verified  bool
	User      UserOutput
	Subject   string
	ExpiresAt time.Time
	Expired   bool
}
