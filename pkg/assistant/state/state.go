package state

import (
	"sync"
	"time"

	"portfolio-assistant-be/pkg/knowledge"
)

// Turn is one completed exchange. Owned exclusively by the session history.
type Turn struct {
	User      string    `json:"user"`
	Assistant string    `json:"assistant"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// RoleConfidence is the belief distribution over the two visitor roles.
// Outside the zero-total edge case both values are >= 0 and sum to 1.
type RoleConfidence struct {
	Visitor   float64 `json:"visitor"`
	Recruiter float64 `json:"recruiter"`
}

// Normalize rescales both scores to sum to 1. A zero total is left
// untouched rather than divided.
func (rc *RoleConfidence) Normalize() {
	total := rc.Visitor + rc.Recruiter
	if total > 0 {
		rc.Visitor /= total
		rc.Recruiter /= total
	}
}

// Session is the unit of work for one turn, threaded through every
// pipeline stage. It may arrive freshly initialized or rehydrated from the
// session store with some fields unset; Normalize makes it whole before
// any stage reads it.
type Session struct {
	// mu serializes turns sharing this session: the session store hands
	// the same pointer to every request carrying the id, and a turn
	// mutates every field.
	mu sync.Mutex

	ID             string
	Input          string
	UserName       string
	History        []Turn
	Confidence     RoleConfidence
	IsRecruiter    bool
	RoleIdentified bool
	RetrievedDocs  []knowledge.Document
	TokensUsed     int
	Persona        string
	Response       string
	FileURL        string
}

// Lock takes the per-session turn lock.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the per-session turn lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// Normalize defaults every field a downstream stage assumes populated.
func (s *Session) Normalize() {
	if s.UserName == "" {
		s.UserName = "there"
	}
	if s.History == nil {
		s.History = []Turn{}
	}
	if s.Confidence.Visitor == 0 && s.Confidence.Recruiter == 0 {
		s.Confidence = RoleConfidence{Visitor: 0.5, Recruiter: 0.5}
	}
	if s.TokensUsed < 0 {
		s.TokensUsed = 0
	}
}

// Remember appends the completed turn and evicts the oldest entries beyond
// the window. Unbounded growth is disallowed.
func (s *Session) Remember(user, assistant string, window int) {
	if user == "" || assistant == "" {
		return
	}
	s.History = append(s.History, Turn{
		User:      user,
		Assistant: assistant,
		Timestamp: time.Now(),
	})
	if window > 0 && len(s.History) > window {
		s.History = s.History[len(s.History)-window:]
	}
}
