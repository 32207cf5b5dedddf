package query

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"portfolio-assistant-be/internal/pkg/logger"
	"portfolio-assistant-be/pkg/llm"
)

const maxSubQueries = 3

// Decomposer splits one user utterance into up to three focused
// sub-queries using the model at low temperature. Decomposition is a
// best-effort optimization: any failure falls back to the raw input.
type Decomposer struct {
	provider llm.LLMProvider
	log      logger.ILogger
}

func NewDecomposer(provider llm.LLMProvider, log logger.ILogger) *Decomposer {
	return &Decomposer{provider: provider, log: log}
}

func (d *Decomposer) Decompose(ctx context.Context, query string) []string {
	prompt := fmt.Sprintf(`You are an expert at query decomposition. Break down the user question about the portfolio owner into 1 to 3 simple, self-contained search queries. These queries retrieve documents from a database of their professional and personal information. The output MUST be a JSON-formatted list of strings and nothing else.

User Question: %q

Decomposed Queries (JSON List):`, query)

	response, err := d.provider.Generate(ctx, prompt, llm.WithTemperature(0.1))
	if err != nil {
		d.log.Warn("query", "decomposition failed, using raw input", map[string]interface{}{
			"error": err.Error(),
		})
		return []string{query}
	}

	subQueries, err := parseSubQueries(response)
	if err != nil {
		d.log.Warn("query", "decomposition output unparseable, using raw input", map[string]interface{}{
			"error": err.Error(),
		})
		return []string{query}
	}

	d.log.Debug("query", "decomposed input", map[string]interface{}{
		"sub_queries": subQueries,
	})
	return subQueries
}

// parseSubQueries extracts the strict string list, tolerating the markdown
// code fences some models wrap JSON in.
func parseSubQueries(response string) ([]string, error) {
	cleaned := strings.TrimSpace(response)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var subQueries []string
	if err := json.Unmarshal([]byte(cleaned), &subQueries); err != nil {
		return nil, err
	}

	valid := subQueries[:0]
	for _, sq := range subQueries {
		if strings.TrimSpace(sq) != "" {
			valid = append(valid, sq)
		}
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("empty sub-query list")
	}
	if len(valid) > maxSubQueries {
		valid = valid[:maxSubQueries]
	}
	return valid, nil
}
