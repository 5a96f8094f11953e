package usecase

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	sessiondto "odysseus/internal/modules/session/dto"
	sessionin "odysseus/internal/modules/session/port/in"
	"odysseus/internal/modules/story/domain"
	storydto "odysseus/internal/modules/story/dto"
	storyin "odysseus/internal/modules/story/port/in"
	"odysseus/internal/modules/story/service"
	apperrors "odysseus/internal/platform/errors"
	"odysseus/internal/platform/logging"
)

type Interactor struct {
	svc     *service.StoryService
	session sessionin.Usecase
	webURL  string
	logger  *zap.Logger
}

// webURL is the web app that share links point at.
func NewInteractor(svc *service.StoryService, session sessionin.Usecase, webURL string, logger *zap.Logger) storyin.Usecase {
	return &Interactor{svc: svc, session: session, webURL: webURL, logger: logging.OrNop(logger).Named("story")}
}

func (i *Interactor) Create(ctx context.Context, input storydto.CreateInput) (storydto.CreatedOutput, error) {
	params := domain.CreateParams{
		Genre:        strings.TrimSpace(input.Genre),
		Style:        strings.TrimSpace(input.Style),
		Ending:       strings.TrimSpace(input.Ending),
		InitialInput: strings.TrimSpace(input.InitialInput),
		Tone: domain.Tone{
			Brutality: input.Brutality,
			Emotion:   input.Emotion,
			Suspense:  input.Suspense,
			Humor:     input.Humor,
			Romance:   input.Romance,
			Intensity: input.Intensity,
			Mystery:   input.Mystery,
		},
	}
	if err := params.Validate(); err != nil {
		return storydto.CreatedOutput{}, err
	}
	current, err := i.requireSession(ctx)
	if err != nil {
		return storydto.CreatedOutput{}, err
	}
	created, err := i.svc.Create(ctx, current.Token, params)
	if err != nil {
		return storydto.CreatedOutput{}, i.expire(ctx, err)
	}
	if err := i.session.SetCurrentStory(ctx, created.ID); err != nil {
		i.logger.Warn("persist current story", zap.String("story_id", created.ID), zap.Error(err))
	}
	return storydto.CreatedOutput{
		StoryID:   created.ID,
		Title:     created.Title,
		FirstPart: created.FirstPart,
		Status:    string(created.Status),
	}, nil
}

func (i *Interactor) List(ctx context.Context, offline bool) (storydto.ListOutput, error) {
	current, err := i.requireSession(ctx)
	if err != nil {
		return storydto.ListOutput{}, err
	}
	if offline {
		stories, synced, err := i.svc.ListOffline(ctx, current.UserID)
		if err != nil {
			return storydto.ListOutput{}, err
		}
		return storydto.ListOutput{Stories: toOutputs(stories), Offline: true, SyncedAt: synced}, nil
	}
	stories, err := i.svc.List(ctx, current.Token, current.UserID)
	if err != nil {
		return storydto.ListOutput{}, i.expire(ctx, err)
	}
	return storydto.ListOutput{Stories: toOutputs(stories)}, nil
}

func (i *Interactor) Get(ctx context.Context, id string) (storydto.StoryOutput, error) {
	current, err := i.requireSession(ctx)
	if err != nil {
		return storydto.StoryOutput{}, err
	}
	id, err = i.resolveID(ctx, id)
	if err != nil {
		return storydto.StoryOutput{}, err
	}
	story, err := i.svc.Get(ctx, current.Token, id)
	if err != nil {
		return storydto.StoryOutput{}, i.expire(ctx, err)
	}
	return toOutput(story), nil
}

func (i *Interactor) Delete(ctx context.Context, id string) error {
	current, err := i.requireSession(ctx)
	if err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return apperrors.ErrInvalidInput
	}
	if err := i.svc.Delete(ctx, current.Token, current.UserID, id); err != nil {
		return i.expire(ctx, err)
	}
	if i.session.CurrentStory(ctx) == id {
		if err := i.session.SetCurrentStory(ctx, ""); err != nil {
			i.logger.Warn("forget deleted current story", zap.Error(err))
		}
	}
	return nil
}

func (i *Interactor) AddCollaborators(ctx context.Context, id string, userIDs []string) error {
	current, err := i.requireSession(ctx)
	if err != nil {
		return err
	}
	id, err = i.resolveID(ctx, id)
	if err != nil {
		return err
	}
	if err := i.svc.AddCollaborators(ctx, current.Token, id, userIDs); err != nil {
		return i.expire(ctx, err)
	}
	return nil
}

func (i *Interactor) ListUsers(ctx context.Context) ([]storydto.MemberOutput, error) {
	current, err := i.requireSession(ctx)
	if err != nil {
		return nil, err
	}
	members, err := i.svc.ListUsers(ctx, current.Token)
	if err != nil {
		return nil, i.expire(ctx, err)
	}
	out := make([]storydto.MemberOutput, 0, len(members))
	for _, m := range members {
		out = append(out, storydto.MemberOutput{ID: m.ID, Name: m.Name, Email: m.Email})
	}
	return out, nil
}

func (i *Interactor) Export(ctx context.Context, id, dir string) (storydto.ExportOutput, error) {
	current, err := i.requireSession(ctx)
	if err != nil {
		return storydto.ExportOutput{}, err
	}
	id, err = i.resolveID(ctx, id)
	if err != nil {
		return storydto.ExportOutput{}, err
	}
	if dir == "" {
		dir = "."
	}
	path, err := i.svc.Export(ctx, current.Token, id, dir)
	if err != nil {
		return storydto.ExportOutput{}, i.expire(ctx, err)
	}
	return storydto.ExportOutput{Path: path}, nil
}

// Share needs no backend call; an empty id means the current story.
func (i *Interactor) Share(ctx context.Context, id string) (storydto.ShareOutput, error) {
	id, err := i.resolveID(ctx, id)
	if err != nil {
		return storydto.ShareOutput{}, err
	}
	share := domain.NewShare(i.webURL, id)
	return storydto.ShareOutput{Title: share.Title, Link: share.Link, Text: share.Text}, nil
}

func (i *Interactor) requireSession(ctx context.Context) (sessiondto.SessionOutput, error) {
	current := i.session.Current(ctx)
	if !current.Present {
		return sessiondto.SessionOutput{}, apperrors.ErrNoSession
	}
	return current, nil
}

// resolveID falls back to the persisted current story.
func (i *Interactor) resolveID(ctx context.Context, id string) (string, error) {
	if id = strings.TrimSpace(id); id != "" {
		return id, nil
	}
	if current := i.session.CurrentStory(ctx); current != "" {
		return current, nil
	}
	return "", apperrors.ErrInvalidInput
}

// expire clears the session when the backend rejected the token.
func (i *Interactor) expire(ctx context.Context, err error) error {
	if errors.Is(err, apperrors.ErrUnauthenticated) {
		if clearErr := i.session.Clear(ctx); clearErr != nil {
			i.logger.Error("clear expired session", zap.Error(clearErr))
		}
	}
	return err
}

func toOutputs(stories []domain.Story) []storydto.StoryOutput {
	out := make([]storydto.StoryOutput, 0, len(stories))
	for _, s := range stories {
		out = append(out, toOutput(s))
	}
	return out
}

func toOutput(s domain.Story) storydto.StoryOutput {
	return storydto.StoryOutput{
		ID:        s.ID,
		Title:     s.Title,
		Genre:     s.Genre,
		Status:    string(s.Status),
		Terminal:  s.Status.Terminal(),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		Plot:      s.Plot,
	}
}
