package domain

import (
	"regexp"
	"strings"

	apperrors "odysseus/internal/platform/errors"
)

const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// Field names match the form inputs they describe.
const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
)

func ValidateLogin(email, password string) error {
	v := &apperrors.ValidationError{}
	validateEmail(v, email)
	validatePassword(v, password)
	return v.Err()
}

func ValidateSignup(name, email, password, confirm string) error {
	v := &apperrors.ValidationError{}
	if strings.TrimSpace(name) == "" {
		v.Add(FieldName, "Name is required")
	}
	validateEmail(v, email)
	validatePassword(v, password)
	switch {
	case confirm == "":
		v.Add(FieldConfirmPassword, "Please confirm your password")
	case confirm != password:
		v.Add(FieldConfirmPassword, "Passwords do not match")
	}
	return v.Err()
}

func validateEmail(v *apperrors.ValidationError, email string) {
	switch {
	case strings.TrimSpace(email) == "":
		v.Add(FieldEmail, "Email is required")
	case !emailPattern.MatchString(email):
		v.Add(FieldEmail, "Email is invalid")
	}
}

func validatePassword(v *apperrors.ValidationError, password string) {
	switch {
	case password == "":
		v.Add(FieldPassword, "Password is required")
	case len(password) < MinPasswordLength:
		v.Add(FieldPassword, "Password must be at least 6 characters")
	}
}
