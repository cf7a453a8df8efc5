package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tentimesukulele/BobiPlanCheck/internal/domain"
	"github.com/tentimesukulele/BobiPlanCheck/internal/logging"
	"github.com/tentimesukulele/BobiPlanCheck/internal/ports"
	"go.uber.org/zap"
)

const (
	IdentityHeader       = "x-family-member-id"
	DefaultTimeout       = 10 * time.Second
	DefaultRetryAttempts = 3
	maxResponseBytes     = 1 << 20
)

type Options struct {
	BaseURL string
	Timeout time.Duration
	// RetryAttempts caps the retries of transient failures. Negative disables retries.
	RetryAttempts  int
	DefaultHeaders map[string]string
	HTTPClient     *http.Client
	Identity       ports.IdentityResolver
	Logger         *zap.Logger
}

type Client struct {
	baseURL        string
	timeout        time.Duration
	retryAttempts  int
	defaultHeaders map[string]string
	httpClient     *http.Client
	identity       ports.IdentityResolver
	logger         *zap.Logger
}

var _ ports.Transport = (*Client)(nil)

func NewClient(opts Options) (*Client, error) {
	baseURL, err := normalizeBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	retries := opts.RetryAttempts
	if retries < 0 {
		retries = 0
	}

	headers := map[string]string{"Content-Type": "application/json"}
	for key, value := range opts.DefaultHeaders {
		headers[key] = value
	}

	return &Client{
		baseURL:        baseURL,
		timeout:        timeout,
		retryAttempts:  retries,
		defaultHeaders: headers,
		httpClient:     opts.HTTPClient,
		identity:       opts.Identity,
		logger:         logging.OrNop(opts.Logger),
	}, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do performs the request, retrying only failures that produced no HTTP
// response. The caller's context bounds the whole call including retries.
func (c *Client) Do(ctx context.Context, req ports.Request) (ports.Envelope, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}

	endpoint, err := c.buildURL(req.Path)
	if err != nil {
		return ports.Envelope{}, err
	}

	var body []byte
	if method != http.MethodGet && method != http.MethodHead {
		body, err = encodeBody(req.Body)
		if err != nil {
			return ports.Envelope{}, fmt.Errorf("encode %s %s body: %w", method, req.Path, err)
		}
	}

	headers := c.requestHeaders(ctx, req.Headers)

	timeout := c.timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}

	retries := c.retryAttempts
	if req.NoRetry {
		retries = 0
	}

	for attempt := 0; ; attempt++ {
		envelope, err := c.attempt(ctx, method, endpoint, req.Path, body, headers, timeout)
		if err == nil {
			return envelope, nil
		}
		if !domain.IsTransient(err) || attempt >= retries || ctx.Err() != nil {
			return ports.Envelope{}, err
		}

		c.logger.Warn("retrying request after transient failure",
			zap.String("method", method),
			zap.String("path", req.Path),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", retries),
			zap.Error(err),
		)
	}
}

func (c *Client) Get(ctx context.Context, path string) (ports.Envelope, error) {
	return c.Do(ctx, ports.Request{Method: http.MethodGet, Path: path})
}

func (c *Client) Post(ctx context.Context, path string, body any) (ports.Envelope, error) {
	return c.Do(ctx, ports.Request{Method: http.MethodPost, Path: path, Body: body})
}

func (c *Client) Put(ctx context.Context, path string, body any) (ports.Envelope, error) {
	return c.Do(ctx, ports.Request{Method: http.MethodPut, Path: path, Body: body})
}

func (c *Client) Patch(ctx context.Context, path string, body any) (ports.Envelope, error) {
	return c.Do(ctx, ports.Request{Method: http.MethodPatch, Path: path, Body: body})
}

func (c *Client) Delete(ctx context.Context, path string) (ports.Envelope, error) {
	return c.Do(ctx, ports.Request{Method: http.MethodDelete, Path: path})
}

func (c *Client) attempt(ctx context.Context, method, endpoint, path string, body []byte, headers map[string]string, timeout time.Duration) (ports.Envelope, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, method, endpoint, reader)
	if err != nil {
		return ports.Envelope{}, fmt.Errorf("create %s %s request: %w", method, path, err)
	}
	for key, value := range headers {
		httpReq.Header.Set(key, value)
	}

	started := time.Now()
	resp, err := c.client().Do(httpReq)
	if err != nil {
		message := "network request failed"
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			message = fmt.Sprintf("request timed out after %s", timeout)
		}

		return ports.Envelope{}, &domain.RequestError{Method: method, Path: path, Message: message, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return ports.Envelope{}, &domain.RequestError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    "read response body",
			Err:        err,
		}
	}

	c.logger.Debug("request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(started)),
	)

	ok := resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices

	envelope, err := decodeEnvelope(resp.Header.Get("Content-Type"), raw, ok)
	if err != nil {
		return ports.Envelope{}, &domain.RequestError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    "decode response",
			Err:        err,
		}
	}

	if !ok {
		return ports.Envelope{}, &domain.RequestError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    failureMessage(envelope, resp.StatusCode),
			Details:    decodeDetails(envelope.Details),
		}
	}

	return envelope, nil
}

func (c *Client) requestHeaders(ctx context.Context, overrides map[string]string) map[string]string {
	headers := make(map[string]string, len(c.defaultHeaders)+len(overrides)+1)
	for key, value := range c.defaultHeaders {
		headers[key] = value
	}

	headers[IdentityHeader] = strconv.Itoa(c.memberID(ctx))

	for key, value := range overrides {
		headers[key] = value
	}

	return headers
}

func (c *Client) memberID(ctx context.Context) int {
	if id, ok := domain.ActingMember(ctx); ok {
		return id
	}
	if c.identity == nil {
		return domain.DefaultMemberID
	}

	id, err := c.identity.ResolveMemberID(ctx)
	if err != nil || id <= 0 {
		c.logger.Warn("resolve acting member, using default", zap.Int("member_id", domain.DefaultMemberID), zap.Error(err))
		return domain.DefaultMemberID
	}

	return id
}

func (c *Client) buildURL(path string) (string, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return "", fmt.Errorf("request path %q must be relative to the base url", path)
	}
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return c.baseURL + path, nil
}

func (c *Client) client() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}

	return http.DefaultClient
}

func normalizeBaseURL(raw string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("api base url %q must use http or https", raw)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("api base url %q has no host", raw)
	}

	return strings.TrimRight(parsed.String(), "/"), nil
}

func encodeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return v, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return json.Marshal(v)
	}
}

// decodeEnvelope parses JSON bodies only. Anything else is kept as an opaque
// string in Data. Non-object JSON and objects without a success field count
// as the data itself.
func decodeEnvelope(contentType string, raw []byte, ok bool) (ports.Envelope, error) {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if !strings.Contains(mediaType, "json") {
		if len(raw) == 0 {
			return ports.Envelope{Success: ok}, nil
		}
		text, err := json.Marshal(string(raw))
		if err != nil {
			return ports.Envelope{}, err
		}
		return ports.Envelope{Success: ok, Data: text}, nil
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ports.Envelope{Success: ok}, nil
	}
	if trimmed[0] != '{' {
		if !json.Valid(trimmed) {
			return ports.Envelope{}, errors.New("invalid json body")
		}
		return ports.Envelope{Success: ok, Data: json.RawMessage(trimmed)}, nil
	}

	var envelope struct {
		ports.Envelope
		Success *bool `json:"success"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return ports.Envelope{}, err
	}
	// A 2xx object without a success field is a bare record, not an envelope.
	if envelope.Success == nil {
		if ok {
			return ports.Envelope{Success: true, Data: json.RawMessage(trimmed)}, nil
		}
		return envelope.Envelope, nil
	}

	envelope.Envelope.Success = *envelope.Success
	return envelope.Envelope, nil
}

func failureMessage(envelope ports.Envelope, status int) string {
	if envelope.Error != "" {
		return envelope.Error
	}
	if envelope.Message != "" {
		return envelope.Message
	}

	return fmt.Sprintf("HTTP %d", status)
}

func decodeDetails(raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []string{string(raw)}
	}

	details := make([]string, 0, len(items))
	for _, item := range items {
		var text string
		if err := json.Unmarshal(item, &text); err == nil {
			details = append(details, text)
			continue
		}
		details = append(details, string(item))
	}

	return details
}
