package httpapi

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	apperrors "odysseus/internal/platform/errors"
)

// parseValidation understands the two 422 shapes the backend has used:
//
//	{"detail": [{"loc": ["body", "genre"], "msg": "field required"}]}
//	{"errors": {"genre": "required"}}   (values may also be string lists)
//
// It returns nil when the body carries no field errors.
func parseValidation(body []byte) *apperrors.ValidationError {
	var payload struct {
		Detail json.RawMessage            `json:"detail"`
		Errors map[string]json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}

	verr := &apperrors.ValidationError{}

	var items []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if len(payload.Detail) > 0 && json.Unmarshal(payload.Detail, &items) == nil {
		for _, item := range items {
			verr.Add(fieldFromLoc(item.Loc), item.Msg)
		}
	} else {
		var detail string
		if json.Unmarshal(payload.Detail, &detail) == nil && detail != "" {
			verr.Add("", detail)
		}
	}

	fields := make([]string, 0, len(payload.Errors))
	for field := range payload.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		raw := payload.Errors[field]
		var single string
		if json.Unmarshal(raw, &single) == nil {
			verr.Add(field, single)
			continue
		}
		var many []string
		if json.Unmarshal(raw, &many) == nil {
			verr.Add(field, strings.Join(many, ", "))
		}
	}

	if len(verr.Fields) == 0 {
		return nil
	}
	return verr
}

// fieldFromLoc takes the last location element, skipping the "body"/"query" root.
func fieldFromLoc(loc []any) string {
	for i := len(loc) - 1; i >= 0; i-- {
		switch v := loc[i].(type) {
		case string:
			if v == "body" || v == "query" {
				continue
			}
			return v
		case float64:
			continue
		default:
			return fmt.Sprint(v)
		}
	}
	return ""
}
