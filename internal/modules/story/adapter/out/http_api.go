package out

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"odysseus/internal/modules/story/domain"
	storyout "odysseus/internal/modules/story/port/out"
	apperrors "odysseus/internal/platform/errors"
	"odysseus/internal/platform/httpapi"
)

// storyPayload covers the shapes the list, get and create endpoints use.
type storyPayload struct {
	ID             httpapi.ID   `json:"id"`
	StoryID        httpapi.ID   `json:"story_id"`
	Title          string       `json:"title"`
	StoryTitle     string       `json:"story_title"`
	Genre          string       `json:"genre"`
	Status         string       `json:"status"`
	Plot           string       `json:"plot"`
	FirstPart      string       `json:"first_part"`
	CreatedAt      httpapi.Time `json:"createdAt"`
	CreatedAtSnake httpapi.Time `json:"created_at"`
	UpdatedAt      httpapi.Time `json:"updatedAt"`
	UpdatedAtSnake httpapi.Time `json:"updated_at"`
}

func (p storyPayload) story() domain.Story {
	s := domain.Story{
		ID:        firstNonEmpty(p.ID.String(), p.StoryID.String()),
		Title:     firstNonEmpty(p.Title, p.StoryTitle),
		Genre:     p.Genre,
		Status:    domain.ParseStatus(p.Status),
		Plot:      firstNonEmpty(p.Plot, p.FirstPart),
		CreatedAt: p.CreatedAt.Time,
		UpdatedAt: p.UpdatedAt.Time,
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = p.CreatedAtSnake.Time
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = p.UpdatedAtSnake.Time
	}
	return s
}

type createBody struct {
	Genre        string `json:"genre"`
	Style        string `json:"style"`
	Ending       string `json:"ending"`
	InitialInput string `json:"initial_input"`
	Brutality    int    `json:"brutality"`
	Emotion      int    `json:"emotion"`
	Suspense     int    `json:"suspense"`
	Humor        int    `json:"humor"`
	Romance      int    `json:"romance"`
	Intensity    int    `json:"intensity"`
	Mystery      int    `json:"mystery"`
}

type HTTPAPI struct {
	client *httpapi.Client
}

func NewHTTPAPI(client *httpapi.Client) storyout.API {
	return &HTTPAPI{client: client}
}

func (a *HTTPAPI) Create(ctx context.Context, token string, params domain.CreateParams) (domain.Created, error) {
	body := createBody{
		Genre:        params.Genre,
		Style:        params.Style,
		Ending:       params.Ending,
		InitialInput: params.InitialInput,
		Brutality:    params.Tone.Brutality,
		Emotion:      params.Tone.Emotion,
		Suspense:     params.Tone.Suspense,
		Humor:        params.Tone.Humor,
		Romance:      params.Tone.Romance,
		Intensity:    params.Tone.Intensity,
		Mystery:      params.Tone.Mystery,
	}
	var out storyPayload
	err := a.client.JSON(ctx, httpapi.Request{
		Method: http.MethodPost,
		Path:   "/stories/new/",
		Body:   body,
		Bearer: token,
	}, &out)
	if err != nil {
		return domain.Created{}, fmt.Errorf("create story: %w", err)
	}
	s := out.story()
	if s.ID == "" {
		return domain.Created{}, fmt.Errorf("create story: %w: response carries no story id", apperrors.ErrRequestFailed)
	}
	return domain.Created{ID: s.ID, Title: s.Title, FirstPart: s.Plot, Status: s.Status}, nil
}

func (a *HTTPAPI) List(ctx context.Context, token string) ([]domain.Story, error) {
	var out []storyPayload
	err := a.client.JSON(ctx, httpapi.Request{
		Method: http.MethodGet,
		Path:   "/stories/user/",
		Bearer: token,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	stories := make([]domain.Story, 0, len(out))
	for _, p := range out {
		stories = append(stories, p.story())
	}
	return stories, nil
}

func (a *HTTPAPI) Get(ctx context.Context, token, id string) (domain.Story, error) {
	var out storyPayload
	err := a.client.JSON(ctx, httpapi.Request{
		Method: http.MethodGet,
		Path:   "/stories/" + url.PathEscape(id),
		Bearer: token,
	}, &out)
	if err != nil {
		return domain.Story{}, fmt.Errorf("get story %s: %w", id, err)
	}
	s := out.story()
	if s.ID == "" {
		s.ID = id
	}
	return s, nil
}

func (a *HTTPAPI) Delete(ctx context.Context, token, id string) error {
	err := a.client.JSON(ctx, httpapi.Request{
		Method: http.MethodDelete,
		Path:   "/stories/" + url.PathEscape(id),
		Bearer: token,
	}, nil)
	if err != nil {
		return fmt.Errorf("delete story %s: %w", id, err)
	}
	return nil
}

func (a *HTTPAPI) AddCollaborators(ctx context.Context, token, id string, userIDs []string) error {
	err := a.client.JSON(ctx, httpapi.Request{
		Method: http.MethodPost,
		Path:   "/stories/" + url.PathEscape(id) + "/collaborators",
		Body:   map[string][]string{"user_ids": userIDs},
		Bearer: token,
	}, nil)
	if err != nil {
		return fmt.Errorf("add collaborators to %s: %w", id, err)
	}
	return nil
}

func (a *HTTPAPI) ListUsers(ctx context.Context, token string) ([]domain.Member, error) {
	var out []struct {
		ID    httpapi.ID `json:"id"`
		Name  string     `json:"name"`
		Email string     `json:"email"`
	}
	err := a.client.JSON(ctx, httpapi.Request{
		Method: http.MethodGet,
		Path:   "/users/",
		Bearer: token,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	members := make([]domain.Member, 0, len(out))
	for _, u := range out {
		members = append(members, domain.Member{ID: u.ID.String(), Name: u.Name, Email: u.Email})
	}
	return members, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
