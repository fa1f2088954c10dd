package frontmatter

import (
	"encoding/json"
	"strings"
)

// Metadata keys, in projection order.
const (
	KeyCategory      = "category"
	KeyOrder         = "order"
	KeyTags          = "tags"
	KeyDifficulty    = "difficulty"
	KeyUnreleased    = "unreleased"
	KeyStatus        = "status"
	KeyTargetVersion = "targetVersion"
)

// Field is a single metadata entry. Value is a string, int or bool.
type Field struct {
	Key   string
	Value any
}

// Metadata is an ordered projection of the present front-matter fields.
type Metadata []Field

// Lookup returns the value stored under key.
func (m Metadata) Lookup(key string) (any, bool) {
	for _, f := range m {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// MarshalJSON encodes the metadata as a JSON object, keeping field order.
func (m Metadata) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, f := range m {
		if i > 0 {
			b.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		b.Write(key)
		b.WriteByte(':')
		b.Write(value)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// BuildMetadata projects the present fields of fm. Absent fields, empty tag
// lists and a false unreleased flag are omitted rather than zero-valued.
func BuildMetadata(fm FrontMatter) Metadata {
	m := Metadata{}
	if fm.Category != "" {
		m = append(m, Field{KeyCategory, fm.Category})
	}
	if fm.Order != nil {
		m = append(m, Field{KeyOrder, *fm.Order})
	}
	if len(fm.Tags) > 0 {
		m = append(m, Field{KeyTags, strings.Join(fm.Tags, ", ")})
	}
	if fm.Difficulty != "" {
		m = append(m, Field{KeyDifficulty, string(fm.Difficulty)})
	}
	if fm.Unreleased {
		m = append(m, Field{KeyUnreleased, true})
	}
	if fm.Status != "" {
		m = append(m, Field{KeyStatus, string(fm.Status)})
	}
	if fm.TargetVersion != "" {
		m = append(m, Field{KeyTargetVersion, fm.TargetVersion})
	}
	return m
}
