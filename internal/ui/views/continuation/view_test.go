package continuation

import (
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	progressiondto "odysseus/internal/modules/progression/dto"
	storydto "odysseus/internal/modules/story/dto"
	apperrors "odysseus/internal/platform/errors"
	"odysseus/internal/ui/nav"
)

type fakePort struct {
	entered []string
	fetches int
	choices []int
	retries int
	leaves  int
	fetched progressiondto.Snapshot
	chosen  progressiondto.Snapshot
	err     error
}

func (f *fakePort) Enter(_ context.Context, storyID, status string) (progressiondto.Snapshot, error) {
	f.entered = append(f.entered, storyID)
	return progressiondto.Snapshot{StoryID: storyID, Phase: "idle", Status: status}, nil
}

func (f *fakePort) FetchOptions(context.Context) (progressiondto.Snapshot, error) {
	f.fetches++
	return f.fetched, f.err
}

func (f *fakePort) Choose(_ context.Context, choice int) (progressiondto.Snapshot, error) {
	f.choices = append(f.choices, choice)
	return f.chosen, f.err
}

func (f *fakePort) Retry(context.Context) (progressiondto.Snapshot, error) {
	f.retries++
	return f.fetched, nil
}

func (f *fakePort) Leave(context.Context) { f.leaves++ }

type fakeStories struct{ story storydto.StoryOutput }

func (f fakeStories) Get(context.Context, string) (storydto.StoryOutput, error) { return f.story, nil }
func (f fakeStories) Share(_ context.Context, id string) (storydto.ShareOutput, error) {
	return storydto.ShareOutput{Link: "http://web.test/stories/" + id, Text: "Read it: http://web.test/stories/" + id}, nil
}

type storyShelf map[string]storydto.StoryOutput

func (s storyShelf) Get(_ context.Context, id string) (storydto.StoryOutput, error) { return s[id], nil }
func (s storyShelf) Share(context.Context, string) (storydto.ShareOutput, error) {
	return storydto.ShareOutput{}, nil
}

// run executes cmd and returns the messages it produced, skipping spinner
// ticks.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case nil, spinner.TickMsg:
		return nil
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, run(c)...)
		}
		return out
	default:
		return []tea.Msg{msg}
	}
}

func feed(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for _, msg := range run(cmd) {
		var next tea.Cmd
		m, next = m.Update(msg)
		m = feed(t, m, next)
	}
	return m
}

func press(m Model, key string) (Model, tea.Cmd) {
	return m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
}

func openStory(t *testing.T, port *fakePort, story storydto.StoryOutput) Model {
	t.Helper()
	m := New(port, fakeStories{story: story})
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	cmd := m.Open(story.ID)
	return feed(t, m, cmd)
}

func readyPort() *fakePort {
	return &fakePort{
		fetched: progressiondto.Snapshot{StoryID: "abc", Phase: "options_ready", Options: []string{"Take the left path", "Wait for dawn"}},
		chosen:  progressiondto.Snapshot{StoryID: "abc", Phase: "segment_ready", Segment: "The path narrows."},
	}
}

func TestOpenFetchesOptionsOnce(t *testing.T) {
	port := readyPort()
	m := openStory(t, port, storydto.StoryOutput{ID: "abc", Title: "Night", Status: "in_progress", Plot: "It was dark."})

	assert.Equal(t, 1, port.fetches)
	assert.Contains(t, m.View(), "Take the left path")
	assert.Contains(t, m.View(), "Wait for dawn")
}

func TestOpenEndedStoryDoesNotFetch(t *testing.T) {
	port := readyPort()
	m := New(port, fakeStories{story: storydto.StoryOutput{ID: "abc", Status: "completed", Terminal: true}})
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m, cmd := m.Update(EnteredMsg{
		Story: storydto.StoryOutput{ID: "abc", Status: "completed", Terminal: true},
		Snap:  progressiondto.Snapshot{StoryID: "abc", Phase: "ended", Ended: true},
	})
	assert.Nil(t, cmd)
	assert.Zero(t, port.fetches)
	assert.Contains(t, m.View(), "The End.")
}

func TestChoiceAppendsSegmentAndIgnoresKeysWhileWaiting(t *testing.T) {
	port := readyPort()
	m := openStory(t, port, storydto.StoryOutput{ID: "abc", Status: "in_progress", Plot: "It was dark."})

	m, cmd := press(m, "2")
	require.NotNil(t, cmd)
	assert.Equal(t, "choice", m.waiting)

	m, extra := press(m, "1")
	assert.Empty(t, run(extra))

	m = feed(t, m, cmd)
	assert.Equal(t, []int{2}, port.choices)
	assert.Equal(t, []string{"It was dark.", "The path narrows."}, m.plot)
	assert.Empty(t, m.waiting)
}

func TestStaleSnapshotIsIgnored(t *testing.T) {
	port := readyPort()
	m := openStory(t, port, storydto.StoryOutput{ID: "abc", Status: "in_progress"})
	before := m.snap

	m, _ = m.Update(SnapshotMsg{Seq: m.seq - 1, Snap: progressiondto.Snapshot{StoryID: "other", Phase: "idle"}})
	assert.Equal(t, before, m.snap)

	m, _ = press(m, "1")
	require.Equal(t, "choice", m.waiting)
	m, cmd := m.Update(SnapshotMsg{Seq: m.seq, Snap: progressiondto.Snapshot{Phase: "idle"}, Err: apperrors.ErrStale})
	assert.Nil(t, cmd)
	assert.Equal(t, before, m.snap)
	assert.Empty(t, m.waiting, "a superseded reply must not leave input blocked")
}

func TestLateEntryForEarlierStoryIsDropped(t *testing.T) {
	port := readyPort()
	shelf := storyShelf{
		"A": {ID: "A", Status: "in_progress", Plot: "Alpha."},
		"B": {ID: "B", Status: "in_progress", Plot: "Beta."},
	}
	m := New(port, shelf)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	openA := m.Open("A")
	openB := m.Open("B")

	m, cmd := m.Update(EnteredMsg{Story: shelf["A"], Snap: progressiondto.Snapshot{StoryID: "A", Phase: "idle"}})
	assert.Nil(t, cmd)
	assert.Empty(t, m.story.ID)
	assert.Empty(t, m.waiting)

	m = feed(t, m, openA)
	assert.Empty(t, port.entered, "superseded open must not enter the flow")
	assert.Empty(t, m.story.ID)

	m = feed(t, m, openB)
	assert.Equal(t, []string{"B"}, port.entered)
	assert.Equal(t, "B", m.story.ID)
	assert.Equal(t, []string{"Beta."}, m.plot)
	assert.Equal(t, 1, port.fetches)
}

func TestMismatchedSnapshotDoesNotBlockInput(t *testing.T) {
	port := readyPort()
	m := openStory(t, port, storydto.StoryOutput{ID: "abc", Status: "in_progress", Plot: "It was dark."})

	m, choose := press(m, "2")
	require.Equal(t, "choice", m.waiting)

	m, _ = m.Update(SnapshotMsg{Seq: m.seq - 1, Snap: progressiondto.Snapshot{StoryID: "other", Phase: "options_ready"}})
	assert.Equal(t, "choice", m.waiting)

	m = feed(t, m, choose)
	assert.Empty(t, m.waiting)
	m, next := press(m, "1")
	assert.NotNil(t, next)
	assert.Equal(t, "choice", m.waiting)
}

func TestCloseDuringOpenNeverEnters(t *testing.T) {
	port := readyPort()
	m := New(port, fakeStories{story: storydto.StoryOutput{ID: "abc", Status: "in_progress"}})
	cmd := m.Open("abc")
	m.Close()

	m = feed(t, m, cmd)
	assert.Empty(t, port.entered)
	assert.Equal(t, 1, port.leaves)
	assert.Empty(t, m.story.ID)
	assert.Zero(t, port.fetches)
}

func TestAuthFailureExpiresSession(t *testing.T) {
	port := readyPort()
	port.err = apperrors.ErrUnauthenticated
	m := New(port, fakeStories{story: storydto.StoryOutput{ID: "abc", Status: "in_progress"}})
	cmd := m.Open("abc")
	var expired bool
	for _, msg := range run(cmd) {
		var next tea.Cmd
		m, next = m.Update(msg)
		for _, follow := range run(next) {
			m, next = m.Update(follow)
			for _, last := range run(next) {
				if _, ok := last.(nav.ExpiredMsg); ok {
					expired = true
				}
			}
		}
	}
	assert.True(t, expired)
}

func TestRetryAfterFailure(t *testing.T) {
	port := readyPort()
	m := openStory(t, port, storydto.StoryOutput{ID: "abc", Status: "in_progress"})

	m, _ = m.Update(SnapshotMsg{
		Seq:  m.seq,
		Snap: progressiondto.Snapshot{StoryID: "abc", Phase: "failed", Options: []string{"Take the left path"}, Retryable: true},
		Err:  apperrors.ErrRequestFailed,
	})
	assert.NotEmpty(t, m.failure)

	m, cmd := press(m, "r")
	m = feed(t, m, cmd)
	assert.Equal(t, 1, port.retries)
	assert.Empty(t, m.failure)
}

func TestCloseLeavesFlow(t *testing.T) {
	port := readyPort()
	m := New(port, fakeStories{})
	m.Close()
	assert.Equal(t, 1, port.leaves)
}

func TestShareCopiesLinkOrShowsIt(t *testing.T) {
	port := readyPort()
	m := openStory(t, port, storydto.StoryOutput{ID: "abc", Status: "in_progress"})
	var copied []string
	m.clip = func(text string) error {
		copied = append(copied, text)
		return nil
	}

	m, cmd := press(m, "y")
	m = feed(t, m, cmd)
	assert.Equal(t, []string{"Read it: http://web.test/stories/abc"}, copied)
	assert.Equal(t, "Link copied to clipboard!", m.notice)

	m.clip = func(string) error { return errors.New("no clipboard") }
	m, cmd = press(m, "y")
	m = feed(t, m, cmd)
	assert.Equal(t, "Read it: http://web.test/stories/abc", m.notice)
	assert.Contains(t, m.View(), "http://web.test/stories/abc")
}
