// Package client is a Go client for the students API that keeps a local
// replica of the student list.
//
// HOW THE REPLICA IS KEPT:
// ────────────────────────
//  1. Before every request the cached list (if any) is attached as the
//     x-client-data header; the server merges it before answering.
//  2. Responses that carry the full list (an unfiltered list, and the
//     "allStudents" of every write) overwrite the cache.
//
// Cached returns the replica without a round trip, so a UI can show it
// immediately and refresh once the request completes.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aanand-mishra/student-records/internal/clientcache"
	"github.com/aanand-mishra/student-records/internal/http/middleware"
	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/goccy/go-json"
)

// ErrNetwork is returned when no response was received at all.
var ErrNetwork = errors.New("network error, please check your connection")

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
	Details map[string][]string
}

func (e *APIError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("%d: %s", e.Status, e.Message)
	}
	parts := make([]string, 0, len(e.Details))
	for field, msgs := range e.Details {
		parts = append(parts, field+": "+strings.Join(msgs, "; "))
	}
	return fmt.Sprintf("%d: %s (%s)", e.Status, e.Message, strings.Join(parts, ", "))
}

// ListOptions filters List. Zero value = the full list.
type ListOptions struct {
	Search string
	MinGPA *float64
	MaxGPA *float64
}

func (o ListOptions) query() url.Values {
	q := url.Values{}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if o.MinGPA != nil {
		q.Set("minGpa", strconv.FormatFloat(*o.MinGPA, 'f', -1, 64))
	}
	if o.MaxGPA != nil {
		q.Set("maxGpa", strconv.FormatFloat(*o.MaxGPA, 'f', -1, 64))
	}
	return q
}

// Client talks to one API base URL, e.g. "http://localhost:8082/api".
type Client struct {
	baseURL string
	http    *http.Client
	cache   *clientcache.Cache
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client (10s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a Client. cache may be nil, in which case nothing is
// attached to requests and nothing is stored.
func New(baseURL string, cache *clientcache.Cache, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		cache:   cache,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cached returns the locally cached list without contacting the server.
func (c *Client) Cached() []types.Student {
	return c.cache.Load()
}

// CachedByID looks id up in the local cache.
func (c *Client) CachedByID(id string) (types.Student, bool) {
	for _, s := range c.cache.Load() {
		if s.ID == id {
			return s, true
		}
	}
	return types.Student{}, false
}

// List fetches students. An unfiltered result replaces the cache.
func (c *Client) List(ctx context.Context, opts ListOptions) ([]types.Student, error) {
	path := "/students"
	q := opts.query()
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out struct {
		Students []types.Student `json:"students"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	if len(q) == 0 {
		c.cache.Save(out.Students)
	}
	return out.Students, nil
}

// Sync sends the cache to the server and stores the merged list it
// returns. Run it once at startup.
func (c *Client) Sync(ctx context.Context) ([]types.Student, error) {
	return c.List(ctx, ListOptions{})
}

// Get fetches one student.
func (c *Client) Get(ctx context.Context, id string) (types.Student, error) {
	var out struct {
		Student types.Student `json:"student"`
	}
	if err := c.do(ctx, http.MethodGet, "/students/"+url.PathEscape(id), nil, &out); err != nil {
		return types.Student{}, err
	}
	return out.Student, nil
}

type writeResult struct {
	Student     types.Student   `json:"student"`
	AllStudents []types.Student `json:"allStudents"`
}

// Create adds a student and refreshes the cache from the response.
func (c *Client) Create(ctx context.Context, in types.StudentInput) (types.Student, error) {
	var out writeResult
	if err := c.do(ctx, http.MethodPost, "/students", in, &out); err != nil {
		return types.Student{}, err
	}
	c.cache.Save(out.AllStudents)
	return out.Student, nil
}

// Update changes the fields set in patch and refreshes the cache.
func (c *Client) Update(ctx context.Context, id string, patch types.StudentInput) (types.Student, error) {
	var out writeResult
	if err := c.do(ctx, http.MethodPut, "/students/"+url.PathEscape(id), patch, &out); err != nil {
		return types.Student{}, err
	}
	c.cache.Save(out.AllStudents)
	return out.Student, nil
}

// Delete removes a student and refreshes the cache.
func (c *Client) Delete(ctx context.Context, id string) error {
	var out struct {
		AllStudents []types.Student `json:"allStudents"`
	}
	if err := c.do(ctx, http.MethodDelete, "/students/"+url.PathEscape(id), nil, &out); err != nil {
		return err
	}
	c.cache.Save(out.AllStudents)
	return nil
}

// ClearCache drops the local replica.
func (c *Client) ClearCache() {
	c.cache.Clear()
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if cached := c.cache.Load(); len(cached) > 0 {
		if raw, err := json.Marshal(cached); err == nil {
			req.Header.Set(middleware.ClientDataHeader, string(raw))
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var eb struct {
			Error   string              `json:"error"`
			Details map[string][]string `json:"details"`
		}
		if json.NewDecoder(resp.Body).Decode(&eb) == nil && eb.Error != "" {
			apiErr.Message = eb.Error
			apiErr.Details = eb.Details
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
