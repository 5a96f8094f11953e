package domain

import (
	"fmt"
	"strings"

	apperrors "odysseus/internal/platform/errors"
)

const (
	ToneMin     = 0
	ToneMax     = 10
	ToneDefault = 5
)

// ToneNames lists the tone sliders in form order.
var ToneNames = []string{"brutality", "emotion", "suspense", "humor", "romance", "intensity", "mystery"}

type Tone struct {
	Brutality int
	Emotion   int
	Suspense  int
	Humor     int
	Romance   int
	Intensity int
	Mystery   int
}

func DefaultTone() Tone {
	return Tone{ToneDefault, ToneDefault, ToneDefault, ToneDefault, ToneDefault, ToneDefault, ToneDefault}
}

// Values returns the sliders keyed by ToneNames.
func (t Tone) Values() map[string]int {
	return map[string]int{
		"brutality": t.Brutality,
		"emotion":   t.Emotion,
		"suspense":  t.Suspense,
		"humor":     t.Humor,
		"romance":   t.Romance,
		"intensity": t.Intensity,
		"mystery":   t.Mystery,
	}
}

type CreateParams struct {
	Genre        string
	Style        string
	Ending       string
	InitialInput string
	Tone         Tone
}

// Validate reports one error per offending field.
func (p CreateParams) Validate() error {
	v := &apperrors.ValidationError{}
	required := []struct{ field, label, value string }{
		{"genre", "Genre", p.Genre},
		{"style", "Style", p.Style},
		{"ending", "Ending", p.Ending},
		{"initial_input", "Story prompt", p.InitialInput},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			v.Add(r.field, r.label+" is required")
		}
	}
	values := p.Tone.Values()
	for _, name := range ToneNames {
		if n := values[name]; n < ToneMin || n > ToneMax {
			v.Add(name, fmt.Sprintf("%s must be between %d and %d", capitalize(name), ToneMin, ToneMax))
		}
	}
	return v.Err()
}

type Created struct {
	ID        string
	Title     string
	FirstPart string
	Status    Status
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
