package dto

import "time"

type CreateInput struct {
	Genre        string
	Style        string
	Ending       string
	InitialInput string
	Brutality    int
	Emotion      int
	Suspense     int
	Humor        int
	Romance      int
	Intensity    int
	Mystery      int
}

// NewCreateInput returns a form with every tone slider at its midpoint.
func NewCreateInput() CreateInput {
	return CreateInput{Brutality: 5, Emotion: 5, Suspense: 5, Humor: 5, Romance: 5, Intensity: 5, Mystery: 5}
}

type CreatedOutput struct {
	StoryID   string
	Title     string
	FirstPart string
	Status    string
}

type StoryOutput struct {
	ID        string
	Title     string
	Genre     string
	Status    string
	Terminal  bool
	CreatedAt time.Time
	UpdatedAt time.Time
	Plot      string
}

type ListOutput struct {
	Stories []StoryOutput
	// Offline is set when the list came from the local index.
	Offline  bool
	SyncedAt time.Time
}

type MemberOutput struct {
	ID    string
	Name  string
	Email string
}

type ExportOutput struct {
	Path string
}

type ShareOutput struct {
	Title string
	Link  string
	Text  string
}
