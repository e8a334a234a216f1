package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurantfinder/finder"
	"restaurantfinder/models"
	"restaurantfinder/view"
)

func newTestStore(ttl time.Duration) *Store {
	return NewStore(ttl, func(r finder.Renderer) *finder.Controller {
		return finder.New(finder.Options{Renderer: r})
	}, nil)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie set", CookieName)
	return nil
}

func TestGetCreatesAndReusesSession(t *testing.T) {
	s := newTestStore(time.Minute)

	rec := httptest.NewRecorder()
	first := s.Get(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotNil(t, first.Controller)
	c := sessionCookie(t, rec)
	assert.Equal(t, first.ID, c.Value)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, 1, s.Len())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	rec = httptest.NewRecorder()
	again := s.Get(rec, req)
	assert.Same(t, first, again)
	assert.Empty(t, rec.Result().Cookies())
}

func TestGetIgnoresUnknownCookie(t *testing.T) {
	s := newTestStore(time.Minute)

	for _, v := range []string{"not-a-uuid", "2f1b7d7e-4a59-4cf8-9a1b-2c1d3e4f5a6b"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: v})
		rec := httptest.NewRecorder()
		sess := s.Get(rec, req)
		assert.NotEqual(t, v, sess.ID)
		assert.Equal(t, sess.ID, sessionCookie(t, rec).Value)
	}
	assert.Equal(t, 2, s.Len())
}

func TestSessionsExpire(t *testing.T) {
	s := newTestStore(20 * time.Millisecond)

	rec := httptest.NewRecorder()
	sess := s.Get(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	views, _ := sess.Views.Subscribe()

	time.Sleep(60 * time.Millisecond)
	_, ok := s.Lookup(sess.ID)
	assert.False(t, ok)

	// The janitor evicts and closes subscribers.
	assert.Eventually(t, func() bool {
		select {
		case _, open := <-views:
			return !open
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestControllerRendersToSubscribers(t *testing.T) {
	s := newTestStore(time.Minute)
	sess := s.Get(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	views, cancel := sess.Views.Subscribe()
	defer cancel()

	sess.Controller.ReplaceAll([]*models.Restaurant{{Name: "Noma", Rating: 4.7}})

	select {
	case v := <-views:
		assert.Equal(t, 1, v.Count)
	case <-time.After(time.Second):
		t.Fatal("no view delivered")
	}
}

func TestBroadcasterKeepsLatestView(t *testing.T) {
	b := NewBroadcaster()
	views, cancel := b.Subscribe()

	b.Render(view.View{Generation: 1})
	b.Render(view.View{Generation: 2})
	b.Render(view.View{Generation: 3})

	v := <-views
	assert.Equal(t, uint64(3), v.Generation)
	assert.Equal(t, 1, b.Subscribers())

	cancel()
	cancel()
	assert.Equal(t, 0, b.Subscribers())
	_, open := <-views
	assert.False(t, open)

	b.Close()
	late, _ := b.Subscribe()
	_, open = <-late
	assert.False(t, open)
}
