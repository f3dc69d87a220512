package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Encode converts a json-tagged value into a field map. Numbers come out as
// int64 when integral and float64 otherwise.
func Encode(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return decodeFields(raw)
}

// Decode fills v from a field map produced by any backend.
func Decode(fields map[string]any, v any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

func decodeFields(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("decode document fields: %w", err)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return normalize(fields).(map[string]any), nil
}

func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, inner := range val {
			val[k] = normalize(inner)
		}
		return val
	case []any:
		for i, inner := range val {
			val[i] = normalize(inner)
		}
		return val
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		f, _ := val.Float64()
		return f
	case int:
		return int64(val)
	case int32:
		return int64(val)
	case float32:
		return float64(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	}
	return v
}

func deepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = deepCopy(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = deepCopy(inner)
		}
		return out
	}
	return v
}

func copyFields(fields map[string]any) map[string]any {
	if fields == nil {
		return map[string]any{}
	}
	return deepCopy(fields).(map[string]any)
}
