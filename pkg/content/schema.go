package content

import (
	"slices"
	"strings"

	"github.com/surrealdb/sitecontent/pkg/coerce"
	"github.com/surrealdb/sitecontent/pkg/markup"
	"github.com/surrealdb/sitecontent/pkg/models"
)

type fieldKind int

const (
	kindText   fieldKind = iota // required, non-empty string
	kindString                  // optional string
	kindBool
	kindMarkup
	kindList
)

// schema lists the writable fields of a collection and their kinds.
type schema struct {
	fields   map[string]fieldKind
	defaults map[string]any
}

var projectSchema = schema{
	fields: map[string]fieldKind{
		models.FieldTitle:        kindText,
		models.FieldDescription:  kindText,
		models.FieldTechnologies: kindList,
		models.FieldFeatures:     kindList,
		models.FieldImageURL:     kindString,
		models.FieldLink:         kindString,
	},
	defaults: map[string]any{
		models.FieldTechnologies: []string{},
		models.FieldFeatures:     []string{},
		models.FieldImageURL:     "",
		models.FieldLink:         "",
	},
}

var serviceSchema = schema{
	fields: map[string]fieldKind{
		models.FieldTitle:       kindText,
		models.FieldDescription: kindText,
		models.FieldIcon:        kindMarkup,
		models.FieldFeatures:    kindList,
		models.FieldIsActive:    kindBool,
	},
	defaults: map[string]any{
		models.FieldIcon:     "",
		models.FieldFeatures: []string{},
		models.FieldIsActive: true,
	},
}

// managed fields are written by the repository only.
var managed = map[string]bool{
	"id":                  true,
	models.FieldOrder:     true,
	models.FieldUpdatedAt: true,
}

// canonicalize converts caller input into the canonical stored types. When
// creating, text fields are required and missing optional fields get their
// defaults.
func (s schema) canonicalize(input map[string]any, creating bool) (map[string]any, error) {
	out := make(map[string]any, len(s.fields)+2)

	names := make([]string, 0, len(input))
	for name := range input {
		names = append(names, name)
	}
	// Sorted so the first reported error does not depend on map order.
	slices.Sort(names)

	for _, name := range names {
		if managed[name] {
			return nil, &ValidationError{Field: name, Reason: "is managed by the repository"}
		}
		kind, ok := s.fields[name]
		if !ok {
			return nil, &ValidationError{Field: name, Reason: "is not a known field"}
		}
		v, err := canonicalValue(name, kind, input[name])
		if err != nil {
			return nil, err
		}
		out[name] = v
	}

	if creating {
		for name, kind := range s.fields {
			if _, ok := out[name]; ok {
				continue
			}
			if kind == kindText {
				return nil, &ValidationError{Field: name, Reason: "is required"}
			}
			if def, ok := s.defaults[name]; ok {
				out[name] = cloneDefault(def)
			}
		}
	}
	return out, nil
}

func canonicalValue(name string, kind fieldKind, raw any) (any, error) {
	switch kind {
	case kindText:
		v := strings.TrimSpace(coerce.String(raw))
		if v == "" {
			return nil, &ValidationError{Field: name, Reason: "must not be empty"}
		}
		return v, nil
	case kindString:
		return strings.TrimSpace(coerce.String(raw)), nil
	case kindBool:
		return coerce.Bool(raw), nil
	case kindMarkup:
		v := coerce.String(raw)
		if strings.TrimSpace(v) == "" {
			return "", nil
		}
		n := markup.Normalize(v)
		if n == "" {
			return nil, &ValidationError{Field: name, Reason: "is not valid SVG markup"}
		}
		return n, nil
	case kindList:
		return canonicalList(name, coerce.Strings(raw))
	}
	return raw, nil
}

// canonicalList trims items, drops empty ones and rejects duplicates.
func canonicalList(name string, items []string) ([]string, error) {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if seen[item] {
			return nil, &ValidationError{Field: name, Reason: "contains duplicate item " + quote(item)}
		}
		seen[item] = true
		out = append(out, item)
	}
	return out, nil
}

func cloneDefault(v any) any {
	if l, ok := v.([]string); ok {
		return append([]string{}, l...)
	}
	return v
}

func quote(s string) string {
	return `"` + s + `"`
}

// isList reports whether field holds a string list in s.
func (s schema) isList(field string) bool {
	kind, ok := s.fields[field]
	return ok && kind == kindList
}
