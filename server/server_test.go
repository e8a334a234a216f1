package server

import (
	"bytes"
	stdgzip "compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurantfinder/backend"
	"restaurantfinder/finder"
	"restaurantfinder/models"
	"restaurantfinder/session"
	"restaurantfinder/view"
)

type fetchFunc func(ctx context.Context, q backend.Query) ([]*models.Restaurant, error)

func (f fetchFunc) Fetch(ctx context.Context, q backend.Query) ([]*models.Restaurant, error) {
	return f(ctx, q)
}

func newTestServer(addr string) *Server {
	return newTestServerWithLogger(addr, nil)
}

func newTestServerWithLogger(addr string, logger *slog.Logger) *Server {
	fetcher := fetchFunc(func(ctx context.Context, q backend.Query) ([]*models.Restaurant, error) {
		out := make([]*models.Restaurant, 0, 40)
		for i := 0; i < 40; i++ {
			out = append(out, &models.Restaurant{
				Name:       fmt.Sprintf("Restaurant %02d", i),
				Address:    fmt.Sprintf("Vesterbrogade %d", i+1),
				PostalCode: q.PostalCode,
				Lat:        55.67 + float64(i)/1000,
				Lng:        12.55,
				Rating:     float64(i%5) + 0.5,
				PriceLevel: i%4 - 1,
			})
		}
		return out, nil
	})
	store := session.NewStore(time.Minute, func(r finder.Renderer) *finder.Controller {
		return finder.New(finder.Options{Fetcher: fetcher, Renderer: r})
	}, nil)
	return New(Options{
		Addr:        addr,
		CORSOrigins: []string{"http://localhost:5173"},
		Store:       store,
		Logger:      logger,
	})
}

func TestRoutesAndGzip(t *testing.T) {
	s := newTestServer("")

	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(`{"postalCode":"1620"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	zr, err := stdgzip.NewReader(rec.Body)
	require.NoError(t, err)
	var v view.View
	require.NoError(t, json.NewDecoder(zr).Decode(&v))
	assert.Equal(t, 40, v.Count)
	assert.NotNil(t, v.Bounds)
}

func TestHistoryDefaultsToNop(t *testing.T) {
	s := newTestServer("")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer("")

	req := httptest.NewRequest(http.MethodOptions, "/api/search", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req.Header.Set("Origin", "http://evil.example.com")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestsAreLoggedThroughSlog(t *testing.T) {
	var buf bytes.Buffer
	s := newTestServerWithLogger("", slog.New(slog.NewTextHandler(&buf, nil)))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	out := buf.String()
	assert.Contains(t, out, "msg=request")
	assert.Contains(t, out, "path=/api/health")
	assert.Contains(t, out, "status=200")
	assert.Contains(t, out, "request_id=")
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer("")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	s := newTestServer("127.0.0.1:0")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
