package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "odysseus/internal/platform/errors"
	"odysseus/internal/platform/id"
	"odysseus/internal/platform/logging"
)

const RequestIDHeader = "X-Request-ID"

// DefaultMaxBody caps how much of a response body is read.
const DefaultMaxBody int64 = 4 << 20

// Client talks JSON to the storytelling backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	ids        id.Generator
	maxBody    int64
	logger     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: timeout}, logger)
}

func NewClientWithHTTP(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		ids:        id.UUID{},
		maxBody:    DefaultMaxBody,
		logger:     logging.OrNop(logger).Named("httpapi"),
	}
}

// WithRequestIDs replaces the X-Request-ID generator.
func (c *Client) WithRequestIDs(ids id.Generator) *Client {
	c.ids = ids
	return c
}

// WithMaxBody replaces the response size cap.
func (c *Client) WithMaxBody(n int64) *Client {
	c.maxBody = n
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// URL resolves path against the base URL.
func (c *Client) URL(path string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    any // JSON-encoded when non-nil
	Bearer  string
	Cookies []*http.Cookie
}

type Response struct {
	Status int
	Body   []byte
}

// Do sends req. Transport failures come back as errors wrapping ErrTimeout or
// ErrRequestFailed; any HTTP status is returned as a Response.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.URL(req.Path, req.Query), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	requestID := c.ids.New()
	httpReq.Header.Set(RequestIDHeader, requestID)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.Bearer != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Bearer)
	}
	for _, cookie := range req.Cookies {
		httpReq.AddCookie(cookie)
	}

	log := c.logger.With(
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.String("request_id", requestID),
	)
	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.Warn("request failed", zap.Error(err), zap.Duration("elapsed", time.Since(started)))
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		log.Warn("read response body failed", zap.Int("status", resp.StatusCode), zap.Error(err))
		return nil, classifyTransport(err)
	}
	if int64(len(raw)) > c.maxBody {
		log.Warn("response body too large", zap.Int("status", resp.StatusCode), zap.Int64("limit", c.maxBody))
		return nil, fmt.Errorf("%w: response body exceeds %d bytes", apperrors.ErrRequestFailed, c.maxBody)
	}
	log.Debug("request completed", zap.Int("status", resp.StatusCode), zap.Duration("elapsed", time.Since(started)))
	return &Response{Status: resp.StatusCode, Body: raw}, nil
}

// JSON sends req and decodes a 2xx body into out (when out is non-nil).
func (c *Client) JSON(ctx context.Context, req Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return resp.Decode(out)
}

// Send is JSON for endpoints where any 2xx means success. The body is
// decoded into out when it parses and ignored otherwise.
func (c *Client) Send(ctx context.Context, req Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}
	if out != nil && !resp.TryDecode(out) {
		c.logger.Debug("ignoring undecodable success body", zap.String("path", req.Path), zap.Int("status", resp.Status))
	}
	return nil
}

func classifyTransport(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", apperrors.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", apperrors.ErrRequestFailed, err)
}

func (r *Response) OK() bool { return r.Status >= 200 && r.Status < 300 }

// Decode unmarshals the body into out.
func (r *Response) Decode(out any) error {
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("%w: decode response: %w", apperrors.ErrRequestFailed, err)
	}
	return nil
}

// TryDecode unmarshals a non-empty body into out and reports whether it did.
func (r *Response) TryDecode(out any) bool {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return false
	}
	return json.Unmarshal(r.Body, out) == nil
}

// Err maps a non-2xx response onto the error taxonomy.
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}
	message := detailMessage(r.Body)
	switch r.Status {
	case http.StatusUnauthorized:
		return apperrors.NewHTTPError(r.Status, message, apperrors.ErrUnauthenticated)
	case http.StatusNotFound:
		return apperrors.NewHTTPError(r.Status, message, apperrors.ErrNotFound)
	case http.StatusUnprocessableEntity:
		if verr := parseValidation(r.Body); verr != nil {
			return verr
		}
		return apperrors.NewHTTPError(r.Status, message, apperrors.ErrInvalidInput)
	default:
		return apperrors.NewHTTPError(r.Status, message, apperrors.ErrRequestFailed)
	}
}

func detailMessage(body []byte) string {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return strings.TrimSpace(string(body))
	}
	var detail string
	if json.Unmarshal(payload.Detail, &detail) == nil && detail != "" {
		return detail
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}
