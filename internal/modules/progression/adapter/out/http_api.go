package out

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"odysseus/internal/modules/progression/domain"
	progressionout "odysseus/internal/modules/progression/port/out"
	storydomain "odysseus/internal/modules/story/domain"
	apperrors "odysseus/internal/platform/errors"
	"odysseus/internal/platform/httpapi"
)

type HTTPAPI struct {
	client       *httpapi.Client
	submitBearer bool
}

// NewHTTPAPI builds the continuation adapter. submitBearer controls whether
// the choice submission carries the token.
func NewHTTPAPI(client *httpapi.Client, submitBearer bool) progressionout.API {
	return &HTTPAPI{client: client, submitBearer: submitBearer}
}

func (a *HTTPAPI) Options(ctx context.Context, token, userID, storyID string) (domain.OptionSet, error) {
	resp, err := a.client.Do(ctx, httpapi.Request{
		Method: http.MethodGet,
		Path:   "/get-story-options/",
		Query:  url.Values{"user_id": {userID}, "story_id": {storyID}},
		Bearer: token,
	})
	if err != nil {
		return domain.OptionSet{}, err
	}
	if err := resp.Err(); err != nil {
		return domain.OptionSet{}, err
	}
	var payload struct {
		Options json.RawMessage `json:"options"`
	}
	if err := json.Unmarshal(resp.Body, &payload); err != nil || len(payload.Options) == 0 {
		return domain.OptionSet{Malformed: true}, nil
	}
	var options []string
	if err := json.Unmarshal(payload.Options, &options); err != nil || options == nil {
		return domain.OptionSet{Malformed: true}, nil
	}
	return domain.OptionSet{Options: options}, nil
}

func (a *HTTPAPI) Submit(ctx context.Context, token, userID, storyID string, choice int) (domain.Continuation, error) {
	req := httpapi.Request{
		Method: http.MethodPost,
		Path:   "/continue-story/",
		Query: url.Values{
			"user_id":  {userID},
			"story_id": {storyID},
			"choice":   {strconv.Itoa(choice)},
		},
	}
	if a.submitBearer {
		req.Bearer = token
	}
	var payload struct {
		Plot     string `json:"plot"`
		NextPart string `json:"next_part"`
		Status   string `json:"status"`
	}
	if err := a.client.JSON(ctx, req, &payload); err != nil {
		return domain.Continuation{}, err
	}
	segment := payload.Plot
	if segment == "" {
		segment = payload.NextPart
	}
	if segment == "" {
		return domain.Continuation{}, fmt.Errorf("%w: continuation carried no plot", apperrors.ErrRequestFailed)
	}
	return domain.Continuation{Segment: segment, Status: storydomain.ParseStatus(payload.Status)}, nil
}
