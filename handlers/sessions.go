package handlers

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"tripweaver/planner"
)

// SessionStore keeps sessions in memory. Idle sessions expire after ttl.
type SessionStore struct {
	cache *cache.Cache
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &SessionStore{cache: cache.New(ttl, ttl/2)}
}

// Create registers a new empty session.
func (s *SessionStore) Create() *planner.Session {
	sess := planner.NewSession(uuid.New().String())
	s.cache.SetDefault(sess.ID, sess)
	return sess
}

// Get returns the session and extends its lifetime.
func (s *SessionStore) Get(id string) (*planner.Session, bool) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	sess := v.(*planner.Session)
	s.cache.SetDefault(id, sess)
	return sess, true
}

func (s *SessionStore) Count() int { return s.cache.ItemCount() }
