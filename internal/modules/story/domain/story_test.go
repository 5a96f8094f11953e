package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"odysseus/internal/modules/story/domain"
	apperrors "odysseus/internal/platform/errors"
)

func TestParseStatus(t *testing.T) {
	t.Parallel()
	assert.Equal(t, domain.StatusEnd, domain.ParseStatus("END"))
	assert.True(t, domain.ParseStatus("End").Terminal())
	assert.Equal(t, domain.StatusInProgress, domain.ParseStatus(" In-Progress "))
	assert.Equal(t, domain.Status("completed"), domain.ParseStatus("completed"))
	assert.False(t, domain.ParseStatus("completed").Terminal())
}

func TestCreateParamsValidateReportsEachField(t *testing.T) {
	t.Parallel()
	tone := domain.DefaultTone()
	tone.Humor = 11
	tone.Mystery = -1
	err := domain.CreateParams{Genre: "fantasy", Tone: tone}.Validate()

	var verr *apperrors.ValidationError
	require.True(t, errors.As(err, &verr))
	fields := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		fields = append(fields, f.Field)
	}
	assert.Equal(t, []string{"style", "ending", "initial_input", "humor", "mystery"}, fields)
	assert.Equal(t, "Humor must be between 0 and 10", verr.Message("humor"))
}

func TestCreateParamsValidateAcceptsDefaults(t *testing.T) {
	t.Parallel()
	params := domain.CreateParams{Genre: "fantasy", Style: "cyberpunk", Ending: "happy", InitialInput: "test", Tone: domain.DefaultTone()}
	require.NoError(t, params.Validate())
}

func TestNewShare(t *testing.T) {
	t.Parallel()
	share := domain.NewShare("http://web.test/", "a b")
	assert.Equal(t, "http://web.test/stories/a%20b", share.Link)
	assert.Equal(t, domain.ShareTitle, share.Title)
	assert.Equal(t, domain.ShareMessage+" http://web.test/stories/a%20b", share.Text)
}
