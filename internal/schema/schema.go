// Package schema holds the invitation document edited by buyers and admins.
//
// A Schema is an immutable JSON object. Reads decode a private copy and edits
// return a new Schema, so a value handed to a renderer never changes under it.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Section names shared by the editors and the themes.
const (
	SectionHero           = "hero"
	SectionVenue          = "venue"
	SectionEvents         = "events"
	SectionCoupleStory    = "couple_story"
	SectionClosing        = "closing"
	SectionRSVP           = "rsvp"
	SectionWeddingDetails = "wedding_details"
	SectionPhotoGallery   = "photo_gallery"
	SectionOurStory       = "our_story"
)

type Schema struct {
	raw []byte
}

// Empty returns the schema `{}`.
func Empty() Schema {
	return Schema{raw: []byte("{}")}
}

// Parse validates data and returns it as a Schema. A JSON null becomes `{}`.
func Parse(data []byte) (Schema, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Empty(), nil
	}

	var doc map[string]any
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return Schema{}, &ValidationError{Problems: []string{fmt.Sprintf("document is not a JSON object: %v", err)}}
	}
	if err := Validate(doc); err != nil {
		return Schema{}, err
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return Schema{}, err
	}
	return Schema{raw: buf.Bytes()}, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(data string) Schema {
	s, err := Parse([]byte(data))
	if err != nil {
		panic(err)
	}
	return s
}

// FromMap encodes doc and validates it.
func FromMap(doc map[string]any) (Schema, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return Schema{}, err
	}
	return Parse(data)
}

// Bytes returns a copy of the compact JSON encoding.
func (s Schema) Bytes() []byte {
	if len(s.raw) == 0 {
		return []byte("{}")
	}
	out := make([]byte, len(s.raw))
	copy(out, s.raw)
	return out
}

func (s Schema) String() string {
	return string(s.Bytes())
}

// Equal reports whether both schemas encode the same document.
func (s Schema) Equal(other Schema) bool {
	var a, b any
	if json.Unmarshal(s.Bytes(), &a) != nil || json.Unmarshal(other.Bytes(), &b) != nil {
		return false
	}
	ab, _ := json.Marshal(a)
	bb, _ := json.Marshal(b)
	return bytes.Equal(ab, bb)
}

func (s Schema) MarshalJSON() ([]byte, error) {
	return s.Bytes(), nil
}

func (s *Schema) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Map decodes a private copy of the document.
func (s Schema) Map() map[string]any {
	doc := map[string]any{}
	_ = json.Unmarshal(s.Bytes(), &doc)
	if doc == nil {
		doc = map[string]any{}
	}
	return doc
}

// Section returns the object stored under name, or an empty map.
func (s Schema) Section(name string) map[string]any {
	if m, ok := s.Map()[name].(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// List returns the object elements of the list stored under name.
// Non-object elements are returned as empty maps so indexes stay aligned.
func (s Schema) List(name string) []map[string]any {
	items, ok := s.Map()[name].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, len(items))
	for i, item := range items {
		if m, ok := item.(map[string]any); ok {
			out[i] = m
		} else {
			out[i] = map[string]any{}
		}
	}
	return out
}

// Len is the length of the list under name, zero when absent.
func (s Schema) Len(name string) int {
	items, _ := s.Map()[name].([]any)
	return len(items)
}

// Text returns section.key as text, empty when absent.
func (s Schema) Text(section, key string) string {
	return text(s.Section(section), key)
}
