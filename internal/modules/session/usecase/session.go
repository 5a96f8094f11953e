package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"odysseus/internal/modules/session/domain"
	sessiondto "odysseus/internal/modules/session/dto"
	sessionin "odysseus/internal/modules/session/port/in"
	sessionout "odysseus/internal/modules/session/port/out"
	apperrors "odysseus/internal/platform/errors"
	"odysseus/internal/platform/logging"
)

type Interactor struct {
	mu     sync.Mutex
	store  sessionout.SessionStore
	nav    sessionout.NavigationStore
	logger *zap.Logger
}

func NewInteractor(store sessionout.SessionStore, nav sessionout.NavigationStore, logger *zap.Logger) sessionin.Usecase {
	return &Interactor{store: store, nav: nav, logger: logging.OrNop(logger).Named("session")}
}

func (i *Interactor) Current(ctx context.Context) sessiondto.SessionOutput {
	session, err := i.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNoSession) {
			i.logger.Warn("session store unreadable, treating as signed out", zap.Error(err))
		}
		return sessiondto.SessionOutput{}
	}
	return sessiondto.SessionOutput{
		Present: true,
		Token:   session.Token,
		UserID:  session.User.ID,
		Name:    session.User.Name,
		Email:   session.User.Email,
	}
}

func (i *Interactor) Set(ctx context.Context, input sessiondto.SetInput) error {
	session, err := domain.NewSession(input.Token, domain.User{ID: input.UserID, Name: input.Name, Email: input.Email})
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	if err := i.store.Save(ctx, session); err != nil {
		return err
	}
	i.logger.Info("session stored", zap.String("user_id", session.User.ID))
	return nil
}

func (i *Interactor) Clear(ctx context.Context) error {
	if err := i.store.Clear(ctx); err != nil {
		return err
	}
	i.logger.Info("session cleared")
	return nil
}

func (i *Interactor) SetCurrentStory(ctx context.Context, storyID string) error {
	return i.updateNavigation(ctx, func(nav *domain.Navigation) {
		nav.CurrentStoryID = storyID
	})
}

func (i *Interactor) CurrentStory(ctx context.Context) string {
	nav, err := i.nav.LoadNavigation(ctx)
	if err != nil {
		i.logger.Warn("navigation store unreadable", zap.Error(err))
		return ""
	}
	return nav.CurrentStoryID
}

func (i *Interactor) RememberView(ctx context.Context, view string) error {
	return i.updateNavigation(ctx, func(nav *domain.Navigation) {
		nav.RememberedView = view
	})
}

func (i *Interactor) TakeRememberedView(ctx context.Context) string {
	var view string
	err := i.updateNavigation(ctx, func(nav *domain.Navigation) {
		view = nav.RememberedView
		nav.RememberedView = ""
	})
	if err != nil {
		i.logger.Warn("erase remembered view", zap.Error(err))
	}
	return view
}

func (i *Interactor) updateNavigation(ctx context.Context, mutate func(nav *domain.Navigation)) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	nav, err := i.nav.LoadNavigation(ctx)
	if err != nil {
		i.logger.Warn("navigation store unreadable, starting fresh", zap.Error(err))
		nav = domain.Navigation{}
	}
	mutate(&nav)
	return i.nav.SaveNavigation(ctx, nav)
}
