package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"odysseus/internal/modules/story/domain"
	storyout "odysseus/internal/modules/story/port/out"
	"odysseus/internal/platform/clock"
	apperrors "odysseus/internal/platform/errors"
	"odysseus/internal/platform/logging"
)

type StoryService struct {
	api      storyout.API
	index    storyout.Index
	exporter storyout.Exporter
	clock    clock.Clock
	logger   *zap.Logger
}

func NewStoryService(api storyout.API, index storyout.Index, exporter storyout.Exporter, clk clock.Clock, logger *zap.Logger) *StoryService {
	return &StoryService{api: api, index: index, exporter: exporter, clock: clk, logger: logging.OrNop(logger).Named("story")}
}

func (s *StoryService) Create(ctx context.Context, token string, params domain.CreateParams) (domain.Created, error) {
	if err := params.Validate(); err != nil {
		return domain.Created{}, err
	}
	created, err := s.api.Create(ctx, token, params)
	if err != nil {
		return domain.Created{}, err
	}
	if created.ID == "" {
		return domain.Created{}, fmt.Errorf("create story: backend returned no story id")
	}
	s.logger.Info("story created", zap.String("story_id", created.ID), zap.String("status", string(created.Status)))
	return created, nil
}

// List fetches the owner's stories and refreshes the local index. An index
// write failure is logged, not returned.
func (s *StoryService) List(ctx context.Context, token, ownerID string) ([]domain.Story, error) {
	stories, err := s.api.List(ctx, token)
	if err != nil {
		return nil, err
	}
	if s.index != nil {
		if err := s.index.Replace(ctx, ownerID, stories, s.clock.Now()); err != nil {
			s.logger.Warn("refresh story index", zap.Error(err))
		}
	}
	return stories, nil
}

// ListOffline reads the last projected list and when it was synced.
func (s *StoryService) ListOffline(ctx context.Context, ownerID string) ([]domain.Story, time.Time, error) {
	if s.index == nil {
		return nil, time.Time{}, fmt.Errorf("story index is not configured")
	}
	return s.index.List(ctx, ownerID)
}

func (s *StoryService) Get(ctx context.Context, token, id string) (domain.Story, error) {
	return s.api.Get(ctx, token, id)
}

func (s *StoryService) Delete(ctx context.Context, token, ownerID, id string) error {
	if err := s.api.Delete(ctx, token, id); err != nil {
		return err
	}
	if s.index != nil {
		if err := s.index.Remove(ctx, ownerID, id); err != nil {
			s.logger.Warn("remove story from index", zap.String("story_id", id), zap.Error(err))
		}
	}
	s.logger.Info("story deleted", zap.String("story_id", id))
	return nil
}

func (s *StoryService) AddCollaborators(ctx context.Context, token, id string, userIDs []string) error {
	if len(userIDs) == 0 {
		return fmt.Errorf("%w: at least one user id is required", apperrors.ErrInvalidInput)
	}
	return s.api.AddCollaborators(ctx, token, id, userIDs)
}

func (s *StoryService) ListUsers(ctx context.Context, token string) ([]domain.Member, error) {
	return s.api.ListUsers(ctx, token)
}

func (s *StoryService) Export(ctx context.Context, token, id, dir string) (string, error) {
	story, err := s.api.Get(ctx, token, id)
	if err != nil {
		return "", err
	}
	return s.exporter.Export(ctx, story, s.clock.Now(), dir)
}
