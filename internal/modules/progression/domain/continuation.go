package domain

import storydomain "odysseus/internal/modules/story/domain"

// OptionSet is what the backend offered for the next part. Malformed is set
// when the success body did not carry an option list.
type OptionSet struct {
	Options   []string
	Malformed bool
}

type Continuation struct {
	Segment string
	Status  storydomain.Status
}
