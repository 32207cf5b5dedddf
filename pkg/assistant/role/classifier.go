package role

import (
	"strings"

	"portfolio-assistant-be/internal/pkg/logger"
	"portfolio-assistant-be/pkg/assistant/state"
)

// Keyword signals. Recruiter hits move confidence hard; visitor-style
// phrasing moves it moderately; anything else nudges toward visitor so
// ambiguous small talk stays in the friendlier persona.
var (
	defaultRecruiterKeywords = []string{
		"hiring", "recruit", "job", "position", "candidate", "resume", "cv", "opportunity",
	}
	defaultVisitorKeywords = []string{
		"cool", "awesome", "hobby", "fun", "curious", "just looking", "love your",
	}
)

const (
	recruiterDelta = 0.25
	visitorDelta   = 0.15
	defaultDelta   = 0.1
)

// Classifier maintains the running visitor/recruiter confidence. It is a
// soft classifier: confidence can oscillate across turns when keyword
// signals conflict.
type Classifier struct {
	recruiterKeywords []string
	visitorKeywords   []string
	identifyThreshold float64
	log               logger.ILogger
}

func NewClassifier(identifyThreshold float64, log logger.ILogger) *Classifier {
	return &Classifier{
		recruiterKeywords: defaultRecruiterKeywords,
		visitorKeywords:   defaultVisitorKeywords,
		identifyThreshold: identifyThreshold,
		log:               log,
	}
}

// Classify updates the session's confidence from the current input and
// renormalizes. IsRecruiter flips whenever recruiter belief leads;
// RoleIdentified latches once either belief crosses the threshold, letting
// later stages reuse a fixed persona instead of re-deriving it.
func (c *Classifier) Classify(s *state.Session) {
	input := strings.ToLower(s.Input)

	switch {
	case containsAny(input, c.recruiterKeywords):
		s.Confidence.Recruiter += recruiterDelta
	case containsAny(input, c.visitorKeywords):
		s.Confidence.Visitor += visitorDelta
	default:
		s.Confidence.Visitor += defaultDelta
	}

	s.Confidence.Normalize()
	s.IsRecruiter = s.Confidence.Recruiter > s.Confidence.Visitor

	if s.Confidence.Recruiter >= c.identifyThreshold || s.Confidence.Visitor >= c.identifyThreshold {
		s.RoleIdentified = true
	}

	c.log.Debug("role", "classified input", map[string]interface{}{
		"is_recruiter": s.IsRecruiter,
		"visitor":      s.Confidence.Visitor,
		"recruiter":    s.Confidence.Recruiter,
	})
}

func containsAny(input string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(input, keyword) {
			return true
		}
	}
	return false
}
