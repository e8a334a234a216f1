// Package session gives every browser its own finder controller, keyed by a
// cookie.
package session

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"restaurantfinder/finder"
)

// CookieName is the cookie carrying the session id.
const CookieName = "finder_session"

// Factory builds the controller of a new session. renderer must be installed
// on the controller so views reach websocket subscribers.
type Factory func(renderer finder.Renderer) *finder.Controller

// Session is one user's controller and the views it emits.
type Session struct {
	ID         string
	Controller *finder.Controller
	Views      *Broadcaster
}

// Store holds sessions in memory with a sliding expiry.
type Store struct {
	mu      sync.Mutex
	cache   *cache.Cache
	ttl     time.Duration
	factory Factory
	logger  *slog.Logger
}

// NewStore creates a Store. Sessions idle for longer than ttl are dropped.
func NewStore(ttl time.Duration, factory Factory, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	c := cache.New(ttl, ttl/2)
	c.OnEvicted(func(id string, v interface{}) {
		if sess, ok := v.(*Session); ok {
			sess.Views.Close()
		}
		logger.Debug("session expired", "session", id)
	})
	return &Store{
		cache:   c,
		ttl:     ttl,
		factory: factory,
		logger:  logger,
	}
}

// Get returns the caller's session, creating one and setting the cookie when
// the request carries no live session.
func (s *Store) Get(w http.ResponseWriter, r *http.Request) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, err := r.Cookie(CookieName); err == nil {
		if sess, ok := s.lookupLocked(c.Value); ok {
			return sess
		}
	}

	sess := s.createLocked()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

// Lookup returns a live session by id without creating one.
func (s *Store) Lookup(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookupLocked(id)
}

// Len is the number of live sessions.
func (s *Store) Len() int {
	return s.cache.ItemCount()
}

func (s *Store) lookupLocked(id string) (*Session, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	sess := v.(*Session)
	// Re-setting the item slides its expiry.
	s.cache.SetDefault(id, sess)
	return sess, true
}

func (s *Store) createLocked() *Session {
	views := NewBroadcaster()
	sess := &Session{
		ID:         uuid.NewString(),
		Controller: s.factory(views),
		Views:      views,
	}
	s.cache.SetDefault(sess.ID, sess)
	s.logger.Debug("session created", "session", sess.ID)
	return sess
}
