package memory

import (
	"time"

	"github.com/patrickmn/go-cache"

	"portfolio-assistant-be/pkg/assistant/state"
)

// SessionRepository keeps conversational sessions in process memory.
// Sessions carry history, role confidence, and token usage across turns;
// idle sessions expire on their own.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository() *SessionRepository {
	// Default expiration of 1 hour, expired entries purged every 10 minutes
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Save(session *state.Session) {
	r.cache.Set(session.ID, session, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*state.Session, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*state.Session), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}
