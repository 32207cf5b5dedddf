package knowledge

// Metadata carries the tag set of a document: type, source, is_current,
// title, url, company. Values are strings and bools.
type Metadata map[string]interface{}

// Filter restricts search candidates to documents whose metadata matches
// every key/value pair.
type Filter map[string]interface{}

// Document is a retrievable fact unit. Immutable once indexed; its Content
// string is its identity for de-duplication.
type Document struct {
	Content  string
	Metadata Metadata
}

// Matches reports whether the metadata satisfies every constraint in f.
func (m Metadata) Matches(f Filter) bool {
	for key, want := range f {
		got, ok := m[key]
		if !ok || got != want {
			return false
		}
	}
	return true
}

// Type returns the "type" tag, or "" when untagged.
func (m Metadata) Type() string {
	if t, ok := m["type"].(string); ok {
		return t
	}
	return ""
}

// Title returns the "title" tag, or "" when untagged.
func (m Metadata) Title() string {
	if t, ok := m["title"].(string); ok {
		return t
	}
	return ""
}
