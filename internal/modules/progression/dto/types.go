package dto

type EnterInput struct {
	// StoryID falls back to the remembered current story when empty.
	StoryID string
	// Status is the story status as last seen, if known.
	Status string
}

type Snapshot struct {
	StoryID   string
	Phase     string
	Options   []string
	Selected  int
	Segment   string
	Status    string
	Warning   string
	Error     string
	Busy      bool
	Ended     bool
	Retryable bool
}
