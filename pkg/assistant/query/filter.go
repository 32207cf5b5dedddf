package query

import (
	"strings"

	"portfolio-assistant-be/pkg/knowledge"
)

// InferFilter maps a sub-query onto an optional metadata filter with
// deterministic keyword rules; no model call. First matching rule wins.
// The current-role check must precede the generic experience check, which
// would otherwise swallow it.
func InferFilter(subQuery string) knowledge.Filter {
	q := strings.ToLower(subQuery)

	if strings.Contains(q, "current") &&
		(strings.Contains(q, "job") || strings.Contains(q, "role") || strings.Contains(q, "experience")) {
		return knowledge.Filter{"is_current": true}
	}
	if strings.Contains(q, "project") || strings.Contains(q, "portfolio") {
		return knowledge.Filter{"type": "project"}
	}
	if strings.Contains(q, "skill") || strings.Contains(q, "technolog") {
		return knowledge.Filter{"type": "skills"}
	}
	if strings.Contains(q, "experience") || strings.Contains(q, "job") ||
		strings.Contains(q, "work") || strings.Contains(q, "role") {
		return knowledge.Filter{"type": "experience"}
	}
	if strings.Contains(q, "education") || strings.Contains(q, "degree") || strings.Contains(q, "university") {
		return knowledge.Filter{"type": "education"}
	}
	if strings.Contains(q, "contact") || strings.Contains(q, "email") || strings.Contains(q, "reach out") {
		return knowledge.Filter{"type": "contact"}
	}
	return nil
}
