package retrieval

import (
	"context"
	"strings"

	"github.com/sourcegraph/conc/iter"

	"portfolio-assistant-be/internal/pkg/logger"
	"portfolio-assistant-be/pkg/assistant/query"
	"portfolio-assistant-be/pkg/assistant/state"
	"portfolio-assistant-be/pkg/knowledge"
)

// Searcher is the slice of the knowledge store the orchestrator needs.
type Searcher interface {
	Search(query string, k int, filter knowledge.Filter) []knowledge.Document
	SearchCombined(query string, k int) []knowledge.Document
}

// Greetings that never warrant a corpus search, and the domain keywords
// that override that short-circuit when present.
var (
	defaultGreetings = []string{
		"hi", "hello", "hey", "how are you", "good morning", "good afternoon", "what's up",
	}
	defaultDomainKeywords = []string{
		"project", "experience", "education", "skill", "internship", "contact", "email",
		"background", "about you", "portfolio", "work", "cv", "resume",
	}
)

// Orchestrator runs the multi-query retrieval strategy: decompose the
// input, search each sub-query independently, and merge with content-keyed
// de-duplication.
type Orchestrator struct {
	store      Searcher
	decomposer *query.Decomposer
	searchK    int
	log        logger.ILogger
}

func NewOrchestrator(store Searcher, decomposer *query.Decomposer, searchK int, log logger.ILogger) *Orchestrator {
	return &Orchestrator{
		store:      store,
		decomposer: decomposer,
		searchK:    searchK,
		log:        log,
	}
}

// Retrieve fills s.RetrievedDocs. Sub-query searches share only read
// access to the store, so they fan out concurrently; per-sub-query
// failures contribute zero documents without aborting the rest.
func (o *Orchestrator) Retrieve(ctx context.Context, s *state.Session) {
	if isSmallTalk(s.Input) {
		o.log.Debug("retrieval", "small talk, skipping search", map[string]interface{}{
			"input": s.Input,
		})
		s.RetrievedDocs = []knowledge.Document{}
		return
	}

	subQueries := o.decomposer.Decompose(ctx, s.Input)

	// Fan-out, order-preserving: result slot i belongs to sub-query i so
	// the merge below stays deterministic.
	perQuery := iter.Map(subQueries, func(sq *string) []knowledge.Document {
		return o.searchOne(*sq)
	})

	seen := make(map[string]struct{})
	merged := []knowledge.Document{}
	for _, docs := range perQuery {
		for _, doc := range docs {
			if _, dup := seen[doc.Content]; dup {
				continue
			}
			seen[doc.Content] = struct{}{}
			merged = append(merged, doc)
		}
	}

	s.RetrievedDocs = merged
	o.log.Info("retrieval", "context retrieved", map[string]interface{}{
		"sub_queries": len(subQueries),
		"documents":   len(merged),
	})
}

func (o *Orchestrator) searchOne(subQuery string) []knowledge.Document {
	if filter := query.InferFilter(subQuery); filter != nil {
		o.log.Debug("retrieval", "applying metadata filter", map[string]interface{}{
			"sub_query": subQuery,
			"filter":    map[string]interface{}(filter),
		})
		return o.store.Search(subQuery, o.searchK, filter)
	}
	return o.store.SearchCombined(subQuery, o.searchK)
}

// isSmallTalk reports whether the input is a bare greeting with no domain
// keyword riding along.
func isSmallTalk(input string) bool {
	normalized := strings.ToLower(strings.TrimSpace(input))
	normalized = strings.Trim(normalized, "!.?,")

	firstWord := normalized
	if fields := strings.Fields(normalized); len(fields) > 0 {
		firstWord = strings.Trim(fields[0], "!.?,")
	}

	// Whole-phrase or leading-word match only; substring matching would
	// swallow inputs like "hiring".
	greeted := false
	for _, greeting := range defaultGreetings {
		if normalized == greeting || firstWord == greeting ||
			(strings.Contains(greeting, " ") && strings.Contains(normalized, greeting)) {
			greeted = true
			break
		}
	}
	if !greeted {
		return false
	}
	for _, keyword := range defaultDomainKeywords {
		if strings.Contains(normalized, keyword) {
			return false
		}
	}
	return true
}
