package knowledge

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"

	"portfolio-assistant-be/pkg/embedding"
)

// Index is a flat brute-force cosine index over one document partition.
// It is immutable after construction; the Store swaps whole indexes on
// rebuild, so readers never need a lock here.
type Index struct {
	docs    []Document
	vectors [][]float64
	norms   []float64
}

// BuildIndex embeds every document and assembles a fresh index. A document
// whose embedding fails is skipped, not fatal; an error is returned only
// when no document could be embedded at all.
func BuildIndex(embedder embedding.EmbeddingProvider, docs []Document) (*Index, error) {
	ix := &Index{}

	var lastErr error
	for _, doc := range docs {
		res, err := embedder.Generate(doc.Content, embedding.TaskRetrievalDocument)
		if err != nil {
			lastErr = err
			continue
		}
		vec := toFloat64(res.Embedding.Values)
		norm := floats.Norm(vec, 2)
		if norm == 0 {
			continue
		}
		ix.docs = append(ix.docs, doc)
		ix.vectors = append(ix.vectors, vec)
		ix.norms = append(ix.norms, norm)
	}

	if len(ix.docs) == 0 && len(docs) > 0 {
		return nil, fmt.Errorf("index build: no documents embedded: %w", lastErr)
	}
	return ix, nil
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.docs)
}

// Search ranks the partition by cosine similarity against the query vector
// and returns the top k documents, after restricting candidates to those
// matching the filter.
func (ix *Index) Search(queryVec []float64, k int, filter Filter) []Document {
	if ix == nil || len(ix.docs) == 0 || k <= 0 {
		return nil
	}
	queryNorm := floats.Norm(queryVec, 2)
	if queryNorm == 0 {
		return nil
	}

	type scored struct {
		idx   int
		score float64
	}
	candidates := make([]scored, 0, len(ix.docs))

	for i, doc := range ix.docs {
		if filter != nil && !doc.Metadata.Matches(filter) {
			continue
		}
		if len(ix.vectors[i]) != len(queryVec) {
			continue
		}
		score := floats.Dot(ix.vectors[i], queryVec) / (ix.norms[i] * queryNorm)
		candidates = append(candidates, scored{idx: i, score: score})
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score > candidates[b].score
	})

	if k > len(candidates) {
		k = len(candidates)
	}
	results := make([]Document, 0, k)
	for _, c := range candidates[:k] {
		results = append(results, ix.docs[c.idx])
	}
	return results
}

func toFloat64(values []float32) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
