// Package backend talks to the restaurant REST API that owns the data.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"restaurantfinder/models"
)

const (
	DefaultTimeout = 10 * time.Second
	sortPath       = "/api/restaurants/sort"
	maxErrorBody   = 4 << 10
)

// ErrNotFound is returned when the backend has no restaurants for a postal code.
var ErrNotFound = errors.New("backend: no restaurants found")

// RequestError is a 400 response; Message holds the server-supplied text.
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string {
	return "backend: bad request: " + e.Message
}

// ServerError covers transport failures and any other non-2xx status.
type ServerError struct {
	Status int
	Err    error
}

func (e *ServerError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("backend: request failed: %v", e.Err)
	}
	return fmt.Sprintf("backend: unexpected status %d", e.Status)
}

func (e *ServerError) Unwrap() error { return e.Err }

// Query is one call to the sort endpoint.
type Query struct {
	PostalCode string
	Method     models.SortMethod
	Location   *models.Location
	K          int
}

// Key identifies a query for caching.
func (q Query) Key() string {
	var b strings.Builder
	b.WriteString(q.PostalCode)
	b.WriteByte('|')
	b.WriteString(string(q.Method))
	if q.Location != nil {
		fmt.Fprintf(&b, "|%.6f,%.6f", q.Location.Lat, q.Location.Lng)
	}
	if q.K > 0 {
		fmt.Fprintf(&b, "|k=%d", q.K)
	}
	return b.String()
}

// Values encodes the query the way the backend expects it.
func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set("postNummer", q.PostalCode)
	v.Set("method", string(q.Method))
	if q.Location != nil {
		v.Set("lat", strconv.FormatFloat(q.Location.Lat, 'f', -1, 64))
		v.Set("lng", strconv.FormatFloat(q.Location.Lng, 'f', -1, 64))
	}
	if q.Method == models.SortKNN && q.K > 0 {
		v.Set("k", strconv.Itoa(q.K))
	}
	return v
}

// Fetcher retrieves a candidate restaurant set.
type Fetcher interface {
	Fetch(ctx context.Context, q Query) ([]*models.Restaurant, error)
}

// Client is the HTTP Fetcher.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a Client for the backend rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Fetch performs a single GET against the sort endpoint. It never retries.
func (c *Client) Fetch(ctx context.Context, q Query) ([]*models.Restaurant, error) {
	apiURL := c.baseURL + sortPath + "?" + q.Values().Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("backend: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ServerError{Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("backend response", "postal_code", q.PostalCode, "method", q.Method, "status", resp.StatusCode)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusBadRequest:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &RequestError{Message: errorText(body)}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &ServerError{Status: resp.StatusCode}
	}

	var restaurants []*models.Restaurant
	if err := json.NewDecoder(resp.Body).Decode(&restaurants); err != nil {
		return nil, &ServerError{Status: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}
	// A null array element decodes to a nil record.
	if n := len(restaurants); n > 0 {
		restaurants = slices.DeleteFunc(restaurants, func(r *models.Restaurant) bool { return r == nil })
		if dropped := n - len(restaurants); dropped > 0 {
			c.logger.Warn("backend returned null restaurants", "postal_code", q.PostalCode, "dropped", dropped)
		}
	}
	if restaurants == nil {
		restaurants = []*models.Restaurant{}
	}
	return restaurants, nil
}

// errorText pulls a human message out of a JSON or plain-text error body.
func errorText(body []byte) string {
	if gjson.ValidBytes(body) {
		for _, path := range []string{"message", "error", "detail"} {
			if r := gjson.GetBytes(body, path); r.Exists() && r.Type == gjson.String && r.String() != "" {
				return r.String()
			}
		}
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "invalid request"
	}
	return text
}
