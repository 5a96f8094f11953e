package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"odysseus/internal/modules/progression/domain"
	progressiondto "odysseus/internal/modules/progression/dto"
	progressionin "odysseus/internal/modules/progression/port/in"
	progressionout "odysseus/internal/modules/progression/port/out"
	sessionin "odysseus/internal/modules/session/port/in"
	storydomain "odysseus/internal/modules/story/domain"
	apperrors "odysseus/internal/platform/errors"
	"odysseus/internal/platform/logging"
)

// Flow drives one story's continuation at a time. The lock guards the
// machine only; it is never held across a backend call.
type Flow struct {
	api     progressionout.API
	session sessionin.Usecase
	logger  *zap.Logger

	mu      sync.Mutex
	epoch   uint64
	machine *domain.Machine
	userID  string
}

func NewFlow(api progressionout.API, session sessionin.Usecase, logger *zap.Logger) progressionin.Usecase {
	return &Flow{api: api, session: session, logger: logging.OrNop(logger).Named("progression")}
}

func (f *Flow) Enter(ctx context.Context, input progressiondto.EnterInput) (progressiondto.Snapshot, error) {
	current := f.session.Current(ctx)
	if !current.Present || current.UserID == "" {
		return f.Snapshot(ctx), apperrors.ErrNoSession
	}
	storyID := strings.TrimSpace(input.StoryID)
	if storyID == "" {
		storyID = f.session.CurrentStory(ctx)
	}
	if storyID == "" {
		return f.Snapshot(ctx), fmt.Errorf("%w: no story selected", apperrors.ErrInvalidInput)
	}
	if err := f.session.SetCurrentStory(ctx, storyID); err != nil {
		f.logger.Warn("persist current story", zap.String("story_id", storyID), zap.Error(err))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	next := f.epoch + 1
	if f.machine != nil {
		f.machine.Invalidate()
		if e := f.machine.Epoch(); e >= next {
			next = e + 1
		}
	}
	f.epoch = next
	f.machine = domain.NewMachine(storyID, storydomain.ParseStatus(input.Status), next)
	f.userID = current.UserID
	f.logger.Debug("entered story", zap.String("story_id", storyID), zap.Uint64("epoch", next))
	return toSnapshot(f.machine), nil
}

func (f *Flow) FetchOptions(ctx context.Context) (progressiondto.Snapshot, error) {
	current := f.session.Current(ctx)
	if !current.Present {
		return f.Snapshot(ctx), apperrors.ErrNoSession
	}

	f.mu.Lock()
	m := f.machine
	if m == nil {
		f.mu.Unlock()
		return progressiondto.Snapshot{Phase: domain.StateIdle.String()}, fmt.Errorf("%w: no story selected", apperrors.ErrInvalidInput)
	}
	ticket, err := m.BeginFetch()
	userID := f.userID
	f.mu.Unlock()
	if err != nil {
		return f.Snapshot(ctx), err
	}

	set, callErr := f.api.Options(ctx, current.Token, userID, ticket.StoryID)
	if callErr != nil {
		callErr = f.expire(ctx, callErr)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if callErr != nil {
		err = m.FailFetch(ticket, callErr)
	} else {
		err = m.ResolveFetch(ticket, set.Options, set.Malformed)
	}
	if err = f.settle(m, ticket, err); err != nil {
		return toSnapshot(f.machine), err
	}
	if callErr != nil {
		f.logger.Warn("fetch options failed", zap.String("story_id", ticket.StoryID), zap.Error(callErr))
		return toSnapshot(m), callErr
	}
	if set.Malformed {
		f.logger.Warn("malformed options payload", zap.String("story_id", ticket.StoryID))
	}
	return toSnapshot(m), nil
}

func (f *Flow) Choose(ctx context.Context, choice int) (progressiondto.Snapshot, error) {
	current := f.session.Current(ctx)
	if !current.Present {
		return f.Snapshot(ctx), apperrors.ErrNoSession
	}

	f.mu.Lock()
	m := f.machine
	if m == nil {
		f.mu.Unlock()
		return progressiondto.Snapshot{Phase: domain.StateIdle.String()}, fmt.Errorf("%w: no story selected", apperrors.ErrInvalidInput)
	}
	ticket, err := m.Select(choice)
	userID := f.userID
	f.mu.Unlock()
	if err != nil {
		return f.Snapshot(ctx), err
	}

	cont, callErr := f.api.Submit(ctx, current.Token, userID, ticket.StoryID, ticket.Choice)
	if callErr != nil {
		callErr = f.expire(ctx, callErr)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if callErr != nil {
		err = m.FailSubmit(ticket, callErr)
	} else {
		err = m.ResolveSubmit(ticket, cont.Segment, cont.Status)
	}
	if err = f.settle(m, ticket, err); err != nil {
		return toSnapshot(f.machine), err
	}
	if callErr != nil {
		f.logger.Warn("submit choice failed", zap.String("story_id", ticket.StoryID), zap.Int("choice", ticket.Choice), zap.Error(callErr))
		return toSnapshot(m), callErr
	}
	if m.State() == domain.StateEnded {
		f.logger.Info("story ended", zap.String("story_id", ticket.StoryID))
	}
	return toSnapshot(m), nil
}

// Retry clears a failure. A failed fetch is re-issued straight away.
func (f *Flow) Retry(ctx context.Context) (progressiondto.Snapshot, error) {
	f.mu.Lock()
	m := f.machine
	if m == nil {
		f.mu.Unlock()
		return progressiondto.Snapshot{Phase: domain.StateIdle.String()}, fmt.Errorf("%w: no story selected", apperrors.ErrInvalidInput)
	}
	state, err := m.Retry()
	f.mu.Unlock()
	if err != nil {
		return f.Snapshot(ctx), err
	}
	if state == domain.StateIdle {
		return f.FetchOptions(ctx)
	}
	return f.Snapshot(ctx), nil
}

// Leave drops the active story; responses still in flight are discarded.
func (f *Flow) Leave(_ context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.machine == nil {
		return
	}
	f.machine.Invalidate()
	if e := f.machine.Epoch(); e > f.epoch {
		f.epoch = e
	}
	f.machine = nil
}

func (f *Flow) Snapshot(_ context.Context) progressiondto.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return toSnapshot(f.machine)
}

// settle reports ErrStale when the response belongs to a machine that has
// since been replaced or invalidated. Caller holds f.mu.
func (f *Flow) settle(m *domain.Machine, ticket domain.Ticket, err error) error {
	if err == nil && f.machine != m {
		err = apperrors.ErrStale
	}
	if errors.Is(err, apperrors.ErrStale) {
		f.logger.Debug("discarded stale response",
			zap.String("story_id", ticket.StoryID),
			zap.Uint64("epoch", ticket.Epoch),
		)
	}
	return err
}

func (f *Flow) expire(ctx context.Context, err error) error {
	if errors.Is(err, apperrors.ErrUnauthenticated) {
		if clearErr := f.session.Clear(ctx); clearErr != nil {
			f.logger.Error("clear expired session", zap.Error(clearErr))
		}
	}
	return err
}

func toSnapshot(m *domain.Machine) progressiondto.Snapshot {
	if m == nil {
		return progressiondto.Snapshot{Phase: domain.StateIdle.String()}
	}
	s := m.Snapshot()
	return progressiondto.Snapshot{
		StoryID:   s.StoryID,
		Phase:     s.State.String(),
		Options:   s.Options,
		Selected:  s.Selected,
		Segment:   s.Segment,
		Status:    string(s.Status),
		Warning:   s.Warning,
		Error:     apperrors.UserMessage(s.Failure),
		Busy:      s.State.InFlight(),
		Ended:     s.State == domain.StateEnded,
		Retryable: s.State == domain.StateFailed,
	}
}
