package domain

import (
	"strings"
	"time"
)

type Status string

const (
	StatusDraft      Status = "draft"
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusEnd        Status = "end"
)

// ParseStatus normalises the known statuses case-insensitively ("END" is
// the backend's terminal marker). Unknown values are kept as sent.
func ParseStatus(raw string) Status {
	trimmed := strings.TrimSpace(raw)
	for _, known := range []Status{StatusDraft, StatusPending, StatusInProgress, StatusEnd} {
		if strings.EqualFold(trimmed, string(known)) {
			return known
		}
	}
	return Status(trimmed)
}

func (s Status) Terminal() bool {
	return strings.EqualFold(string(s), string(StatusEnd))
}

type Story struct {
	ID        string
	Title     string
	Genre     string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
	Plot      string
}

type Member struct {
	ID    string
	Name  string
	Email string
}
