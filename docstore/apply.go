package docstore

import (
	"fmt"
	"sort"
	"strings"
)

// applyUpdates mutates data in place. Nested maps along a dotted path are
// created when missing.
func applyUpdates(data map[string]any, updates []Update) error {
	for _, u := range updates {
		if u.Path == "" {
			return fmt.Errorf("%w: empty field path", ErrInvalidPath)
		}
		keys := strings.Split(u.Path, ".")
		parent := data
		for _, key := range keys[:len(keys)-1] {
			next, ok := parent[key].(map[string]any)
			if !ok {
				next = map[string]any{}
				parent[key] = next
			}
			parent = next
		}
		last := keys[len(keys)-1]

		inc, ok := u.Value.(increment)
		if !ok {
			parent[last] = normalize(deepCopy(u.Value))
			continue
		}
		switch cur := parent[last].(type) {
		case nil:
			parent[last] = inc.delta
		case int64:
			parent[last] = cur + inc.delta
		case float64:
			parent[last] = cur + float64(inc.delta)
		default:
			return fmt.Errorf("cannot increment non-numeric field %q", u.Path)
		}
	}
	return nil
}

func lookupField(data map[string]any, path string) (any, bool) {
	var cur any = data
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// compareValues orders numbers numerically and strings lexically. ok is false
// for values of different kinds.
func compareValues(a, b any) (int, bool) {
	a, b = normalize(a), normalize(b)
	if fa, okA := toFloat(a); okA {
		fb, okB := toFloat(b)
		if !okB {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		if av == bv {
			return 0, true
		}
		if !av {
			return -1, true
		}
		return 1, true
	case nil:
		if b == nil {
			return 0, true
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func matchesFilters(data map[string]any, filters []Filter) (bool, error) {
	for _, f := range filters {
		val, ok := lookupField(data, f.Field)
		if !ok {
			return false, nil
		}
		cmp, ok := compareValues(val, f.Value)
		if !ok {
			return false, nil
		}
		var pass bool
		switch f.Op {
		case OpEqual:
			pass = cmp == 0
		case OpLess:
			pass = cmp < 0
		case OpLessEqual:
			pass = cmp <= 0
		case OpGreater:
			pass = cmp > 0
		case OpGreaterEqual:
			pass = cmp >= 0
		default:
			return false, fmt.Errorf("unsupported filter operator %q", f.Op)
		}
		if !pass {
			return false, nil
		}
	}
	return true, nil
}

// filterAndSort applies filters then order. Documents are sorted by id first
// so that ties keep a stable order.
func filterAndSort(docs []Document, filters []Filter, order *OrderBy) ([]Document, error) {
	out := make([]Document, 0, len(docs))
	for _, doc := range docs {
		ok, err := matchesFilters(doc.Data, filters)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, doc)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if order == nil {
		return out, nil
	}
	sort.SliceStable(out, func(i, j int) bool {
		vi, _ := lookupField(out[i].Data, order.Field)
		vj, _ := lookupField(out[j].Data, order.Field)
		cmp, _ := compareValues(vi, vj)
		if order.Desc {
			return cmp > 0
		}
		return cmp < 0
	})
	return out, nil
}
