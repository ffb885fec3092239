package docstore

import (
	"cmp"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/surrealdb/sitecontent/pkg/coerce"
)

// MatchEquals applies filter the way a typed document store does: the field
// must be present and hold a value of the same kind. Numbers of different Go
// types compare by value. Nothing is coerced, so "true" does not equal true.
func MatchEquals(fields map[string]any, filter *Equals) bool {
	if filter == nil {
		return true
	}
	v, ok := fields[filter.Field]
	if !ok || v == nil {
		return filter.Value == nil && ok
	}
	if a, ok := coerce.Number(v); ok {
		b, ok := coerce.Number(filter.Value)
		return ok && a == b
	}
	return reflect.DeepEqual(v, filter.Value)
}

// SortByField orders docs ascending by the raw value of field, dropping
// documents that do not carry it. The sort is stable.
func SortByField(docs []Document, field string) []Document {
	if field == "" {
		return docs
	}
	out := docs[:0:0]
	for _, d := range docs {
		if v, ok := d.Fields[field]; ok && v != nil {
			out = append(out, d)
		}
	}
	slices.SortStableFunc(out, func(a, b Document) int {
		return Compare(a.Fields[field], b.Fields[field])
	})
	return out
}

// Compare orders two raw values. Values of different kinds order by kind:
// booleans, then numbers, then strings, then times, then everything else.
func Compare(a, b any) int {
	ka, kb := kindRank(a), kindRank(b)
	if ka != kb {
		return cmp.Compare(ka, kb)
	}
	switch ka {
	case 0:
		x, y := a.(bool), b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	case 1:
		x, _ := coerce.Number(a)
		y, _ := coerce.Number(b)
		return cmp.Compare(x, y)
	case 2:
		return strings.Compare(a.(string), b.(string))
	case 3:
		return a.(time.Time).Compare(b.(time.Time))
	}
	return 0
}

func kindRank(v any) int {
	switch v.(type) {
	case bool:
		return 0
	case string:
		return 2
	case time.Time:
		return 3
	}
	if _, ok := coerce.Number(v); ok {
		return 1
	}
	return 4
}
