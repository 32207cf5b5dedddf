package knowledge

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"portfolio-assistant-be/internal/pkg/logger"
	"portfolio-assistant-be/pkg/embedding"
)

// Loader supplies one partition's documents. The store has no opinion on
// where they come from.
type Loader interface {
	Name() string
	Load(ctx context.Context) ([]Document, error)
}

// Store owns two independently indexed document partitions: the static
// corpus (profile, projects, resume facts) and the dynamic corpus
// (externally fetched, periodically refreshed). Searches are read-mostly
// and lock-free once the index snapshot is taken; Update replaces whole
// indexes under the write lock, never patches them.
type Store struct {
	mu      sync.RWMutex
	static  *Index
	dynamic *Index

	embedder      embedding.EmbeddingProvider
	staticLoader  Loader
	dynamicLoader Loader
	log           logger.ILogger
}

func NewStore(embedder embedding.EmbeddingProvider, staticLoader, dynamicLoader Loader, log logger.ILogger) *Store {
	return &Store{
		embedder:      embedder,
		staticLoader:  staticLoader,
		dynamicLoader: dynamicLoader,
		log:           log,
	}
}

// Update reloads both partitions, re-embeds, and swaps in the new indexes.
// A partition whose reload fails keeps its previous index so in-flight and
// future searches still see a consistent corpus; the failure is still
// reported so callers can tell a fresh corpus from a stale one.
func (s *Store) Update(ctx context.Context) error {
	newStatic, staticErr := s.rebuildPartition(ctx, s.staticLoader)
	newDynamic, dynamicErr := s.rebuildPartition(ctx, s.dynamicLoader)

	s.mu.Lock()
	if newStatic != nil {
		s.static = newStatic
	}
	if newDynamic != nil {
		s.dynamic = newDynamic
	}
	s.mu.Unlock()

	s.log.Info("knowledge", "vector store updated", map[string]interface{}{
		"static_docs":  s.static.Len(),
		"dynamic_docs": s.dynamic.Len(),
	})
	return errors.Join(staticErr, dynamicErr)
}

func (s *Store) rebuildPartition(ctx context.Context, loader Loader) (*Index, error) {
	if loader == nil {
		return nil, nil
	}
	docs, err := loader.Load(ctx)
	if err != nil {
		s.log.Error("knowledge", "partition load failed", map[string]interface{}{
			"partition": loader.Name(),
			"error":     err.Error(),
		})
		return nil, fmt.Errorf("%s partition load: %w", loader.Name(), err)
	}
	ix, err := BuildIndex(s.embedder, docs)
	if err != nil {
		s.log.Error("knowledge", "partition index build failed", map[string]interface{}{
			"partition": loader.Name(),
			"error":     err.Error(),
		})
		return nil, fmt.Errorf("%s partition index: %w", loader.Name(), err)
	}
	return ix, nil
}

// Search runs a filtered similarity search across both partitions, static
// results first. Dynamic documents carry the same metadata tags as static
// ones (GitHub repos are type "project"), so a filter must not hide them.
// All failures degrade to an empty result: an index that is not built yet,
// an embedding error, anything.
func (s *Store) Search(query string, k int, filter Filter) []Document {
	s.mu.RLock()
	staticIx, dynamicIx := s.static, s.dynamic
	s.mu.RUnlock()

	if staticIx.Len() == 0 && dynamicIx.Len() == 0 {
		s.log.Warn("knowledge", "search before index built", nil)
		return nil
	}

	queryVec, ok := s.embedQuery(query)
	if !ok {
		return nil
	}

	results := staticIx.Search(queryVec, k, filter)
	results = append(results, dynamicIx.Search(queryVec, k, filter)...)
	return results
}

// SearchCombined is an unfiltered Search: both partitions, each
// contributing its own top-k, static first. There is no cross-partition
// re-ranking, so one partition's noise cannot starve the other.
func (s *Store) SearchCombined(query string, k int) []Document {
	return s.Search(query, k, nil)
}

func (s *Store) embedQuery(query string) ([]float64, bool) {
	res, err := s.embedder.Generate(query, embedding.TaskRetrievalQuery)
	if err != nil {
		s.log.Error("knowledge", "query embedding failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, false
	}
	return toFloat64(res.Embedding.Values), true
}
