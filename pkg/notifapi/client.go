package notifapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTimeout  = 15 * time.Second
	defaultPageSize = 100
	// maxPages bounds ListAll so a server that never stops returning cursors
	// cannot pin the caller.
	maxPages = 50

	notificationsPath = "/api/v1/notifications"
)

// Notification mirrors the notification DTO served by the REST API.
type Notification struct {
	ID        string     `json:"id"`
	Category  string     `json:"category"`
	Priority  string     `json:"priority"`
	Status    string     `json:"status"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Link      *string    `json:"link,omitempty"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Page is one page of the notification list.
type Page struct {
	Items  []Notification `json:"items"`
	Cursor string         `json:"cursor"`
}

// APIError is returned when the API answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    json.RawMessage
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("notifications api: status=%d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("notifications api: status=%d code=%s: %s", e.StatusCode, e.Code, e.Message)
}

// Options tunes a Client.
type Options struct {
	Timeout    time.Duration
	PageSize   int
	HTTPClient *http.Client
}

// Client talks to the notifications REST API on behalf of one bearer token
// carried in the request context.
type Client struct {
	httpClient *http.Client
	baseURL    string
	pageSize   int
}

// New builds a client for baseURL (e.g. "https://api.tunedash.io").
func New(baseURL string, opts Options) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("notifications api base url required")
	}
	if _, err := url.ParseRequestURI(trimmed); err != nil {
		return nil, fmt.Errorf("parse notifications api base url: %w", err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    trimmed,
		pageSize:   pageSize,
	}, nil
}

// ListPage fetches a single page starting after cursor.
func (c *Client) ListPage(ctx context.Context, cursor string, limit int) (*Page, error) {
	if limit <= 0 {
		limit = c.pageSize
	}
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		query.Set("cursor", cursor)
	}

	var page Page
	if err := c.doJSON(ctx, http.MethodGet, notificationsPath+"?"+query.Encode(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListAll follows cursors until the server reports no further page.
func (c *Client) ListAll(ctx context.Context) ([]Notification, error) {
	var (
		all    []Notification
		cursor string
	)
	for range maxPages {
		page, err := c.ListPage(ctx, cursor, c.pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if page.Cursor == "" || page.Cursor == cursor {
			return all, nil
		}
		cursor = page.Cursor
	}
	return nil, fmt.Errorf("notifications api: more than %d pages", maxPages)
}

// MarkRead marks one notification read.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("notification id required")
	}
	return c.doJSON(ctx, http.MethodPost, notificationsPath+"/"+url.PathEscape(id)+"/read", nil, nil)
}

// MarkAllRead marks every unread notification of the caller read and returns
// how many rows the server updated.
func (c *Client) MarkAllRead(ctx context.Context) (int64, error) {
	var out struct {
		Updated int64 `json:"updated"`
	}
	if err := c.doJSON(ctx, http.MethodPost, notificationsPath+"/read-all", nil, &out); err != nil {
		return 0, err
	}
	return out.Updated, nil
}

type successEnvelope struct {
	Data json.RawMessage `json:"data"`
}

type errorEnvelope struct {
	Error struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, ok := TokenFromContext(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, raw)
	}
	if result == nil || len(raw) == 0 {
		return nil
	}

	var envelope successEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode response envelope: %w", err)
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, result); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

func decodeAPIError(status int, raw []byte) error {
	apiErr := &APIError{StatusCode: status, Message: http.StatusText(status)}
	var envelope errorEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Code != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
		apiErr.Details = envelope.Error.Details
		return apiErr
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		apiErr.Message = text
	}
	return apiErr
}

type contextKey string

const contextKeyToken contextKey = "bearer_token"

// ContextWithToken stores the bearer token forwarded on outgoing requests.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, contextKeyToken, token)
}

// TokenFromContext returns the bearer token set by ContextWithToken.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(contextKeyToken).(string)
	return token, ok && token != ""
}
