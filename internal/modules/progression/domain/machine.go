package domain

import (
	"fmt"

	storydomain "odysseus/internal/modules/story/domain"
	apperrors "odysseus/internal/platform/errors"
)

type State int

const (
	StateIdle State = iota
	StateFetchingOptions
	StateOptionsReady
	StateSubmittingChoice
	StateSegmentReady
	StateEnded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetchingOptions:
		return "fetching_options"
	case StateOptionsReady:
		return "options_ready"
	case StateSubmittingChoice:
		return "submitting_choice"
	case StateSegmentReady:
		return "segment_ready"
	case StateEnded:
		return "ended"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// InFlight reports whether a request is outstanding in state s.
func (s State) InFlight() bool {
	return s == StateFetchingOptions || s == StateSubmittingChoice
}

type Op int

const (
	OpFetch Op = iota + 1
	OpSubmit
)

// Ticket identifies one outstanding request. A response is applied only
// while its ticket still matches the machine.
type Ticket struct {
	StoryID string
	Epoch   uint64
	Op      Op
	Choice  int
}

const EmptyOptionsWarning = "No story options available."

// Machine tracks continuation of a single story. It is not safe for
// concurrent use; callers serialise access.
type Machine struct {
	storyID  string
	epoch    uint64
	state    State
	resume   State
	options  []string
	selected int
	segment  string
	status   storydomain.Status
	warning  string
	failure  error
}

// NewMachine starts at Idle, or at Ended when status is already terminal.
// epoch should differ from every epoch handed to earlier machines.
func NewMachine(storyID string, status storydomain.Status, epoch uint64) *Machine {
	m := &Machine{storyID: storyID, epoch: epoch, status: status}
	if status.Terminal() {
		m.state = StateEnded
	}
	return m
}

func (m *Machine) StoryID() string { return m.storyID }
func (m *Machine) Epoch() uint64 { return m.epoch }
func (m *Machine) State() State { return m.state }
func (m *Machine) Status() storydomain.Status { return m.status }

// BeginFetch moves to FetchingOptions.
func (m *Machine) BeginFetch() (Ticket, error) {
	if err := m.guard(); err != nil {
		return Ticket{}, err
	}
	m.state = StateFetchingOptions
	m.resume = StateIdle
	m.options = nil
	m.selected = 0
	m.warning = ""
	m.failure = nil
	return Ticket{StoryID: m.storyID, Epoch: m.epoch, Op: OpFetch}, nil
}

// ResolveFetch applies a fetched option list. A malformed payload or an
// empty list still lands in OptionsReady, with a warning.
func (m *Machine) ResolveFetch(t Ticket, options []string, malformed bool) error {
	if err := m.check(t, OpFetch, StateFetchingOptions); err != nil {
		return err
	}
	m.state = StateOptionsReady
	if malformed {
		m.options = nil
	} else {
		m.options = CleanOptions(options)
	}
	if len(m.options) == 0 {
		m.warning = EmptyOptionsWarning
	}
	return nil
}

// FailFetch records a fetch failure; Retry returns to Idle.
func (m *Machine) FailFetch(t Ticket, cause error) error {
	if err := m.check(t, OpFetch, StateFetchingOptions); err != nil {
		return err
	}
	m.state = StateFailed
	m.resume = StateIdle
	m.failure = cause
	return nil
}

// Select submits the 1-based choice i. Options from a failed submission
// stay selectable without an explicit Retry.
func (m *Machine) Select(i int) (Ticket, error) {
	if err := m.guard(); err != nil {
		return Ticket{}, err
	}
	selectable := m.state == StateOptionsReady || (m.state == StateFailed && m.resume == StateOptionsReady)
	if !selectable || len(m.options) == 0 {
		return Ticket{}, fmt.Errorf("%w: no options to choose from", apperrors.ErrInvalidInput)
	}
	if i < 1 || i > len(m.options) {
		verr := &apperrors.ValidationError{}
		verr.Add("choice", fmt.Sprintf("Choose an option between 1 and %d", len(m.options)))
		return Ticket{}, verr
	}
	m.state = StateSubmittingChoice
	m.selected = i
	m.failure = nil
	return Ticket{StoryID: m.storyID, Epoch: m.epoch, Op: OpSubmit, Choice: i}, nil
}

// ResolveSubmit shows the new segment. An empty status keeps the previous one.
func (m *Machine) ResolveSubmit(t Ticket, segment string, status storydomain.Status) error {
	if err := m.check(t, OpSubmit, StateSubmittingChoice); err != nil {
		return err
	}
	m.segment = segment
	if status != "" {
		m.status = status
	}
	m.options = nil
	m.selected = 0
	m.warning = ""
	if m.status.Terminal() {
		m.state = StateEnded
		return nil
	}
	m.state = StateSegmentReady
	return nil
}

// FailSubmit keeps the options and clears the selection; Retry returns to
// OptionsReady.
func (m *Machine) FailSubmit(t Ticket, cause error) error {
	if err := m.check(t, OpSubmit, StateSubmittingChoice); err != nil {
		return err
	}
	m.state = StateFailed
	m.resume = StateOptionsReady
	m.selected = 0
	m.failure = cause
	return nil
}

// Retry leaves Failed for the state the failed request started from.
func (m *Machine) Retry() (State, error) {
	if m.state != StateFailed {
		return m.state, fmt.Errorf("%w: nothing to retry", apperrors.ErrInvalidInput)
	}
	m.state = m.resume
	m.failure = nil
	return m.state, nil
}

// Invalidate bumps the epoch so outstanding tickets go stale, and backs out
// of any in-flight state.
func (m *Machine) Invalidate() {
	m.epoch++
	switch m.state {
	case StateFetchingOptions:
		m.state = StateIdle
	case StateSubmittingChoice:
		m.state = StateOptionsReady
		m.selected = 0
	}
}

func (m *Machine) Snapshot() Snapshot {
	return Snapshot{
		StoryID:  m.storyID,
		State:    m.state,
		Resume:   m.resume,
		Options:  append([]string(nil), m.options...),
		Selected: m.selected,
		Segment:  m.segment,
		Status:   m.status,
		Warning:  m.warning,
		Failure:  m.failure,
	}
}

type Snapshot struct {
	StoryID  string
	State    State
	Resume   State
	Options  []string
	Selected int
	Segment  string
	Status   storydomain.Status
	Warning  string
	Failure  error
}

func (m *Machine) guard() error {
	if m.state == StateEnded {
		return apperrors.ErrStoryEnded
	}
	if m.state.InFlight() {
		return apperrors.ErrBusy
	}
	return nil
}

func (m *Machine) check(t Ticket, op Op, want State) error {
	if t.StoryID != m.storyID || t.Epoch != m.epoch || t.Op != op || m.state != want {
		return apperrors.ErrStale
	}
	return nil
}
