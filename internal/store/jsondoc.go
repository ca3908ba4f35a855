package store

import (
	"encoding/json/v2"
	"fmt"
	"reflect"
)

// Helpers shared by the backends that modify documents through a
// read-modify-write cycle (badger, sqlite). MongoDB applies the equivalent
// operators server-side.

// Normalize round-trips a value through JSON so comparisons against decoded
// documents see the same shapes (maps for structs, float64 for numbers).
func Normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyFields merges normalized field values into a decoded document and
// reports whether anything changed.
func ApplyFields(doc, fields map[string]any) (bool, error) {
	changed := false
	for name, value := range fields {
		norm, err := Normalize(value)
		if err != nil {
			return false, fmt.Errorf("normalize field %q: %w", name, err)
		}
		if reflect.DeepEqual(doc[name], norm) {
			continue
		}
		doc[name] = norm
		changed = true
	}
	return changed, nil
}

// PushValue appends a normalized value to an array field, creating the array
// if the field is missing.
func PushValue(doc map[string]any, field string, value any) error {
	norm, err := Normalize(value)
	if err != nil {
		return fmt.Errorf("normalize value: %w", err)
	}
	arr, _ := doc[field].([]any)
	doc[field] = append(arr, norm)
	return nil
}

// DecodeList assembles raw JSON documents into a single array and decodes it
// in one pass, so backends can hand results to any pointer-to-slice type.
func DecodeList(docs [][]byte, out any) error {
	size := 2
	for _, d := range docs {
		size += len(d) + 1
	}

	arr := make([]byte, 0, size)
	arr = append(arr, '[')
	for i, d := range docs {
		if i > 0 {
			arr = append(arr, ',')
		}
		arr = append(arr, d...)
	}
	arr = append(arr, ']')

	return json.Unmarshal(arr, out)
}

// PullValue removes every occurrence of a normalized value from an array
// field and reports whether anything was removed.
func PullValue(doc map[string]any, field string, value any) (bool, error) {
	norm, err := Normalize(value)
	if err != nil {
		return false, fmt.Errorf("normalize value: %w", err)
	}
	arr, ok := doc[field].([]any)
	if !ok {
		return false, nil
	}

	kept := arr[:0]
	removed := false
	for _, elem := range arr {
		if reflect.DeepEqual(elem, norm) {
			removed = true
			continue
		}
		kept = append(kept, elem)
	}
	if removed {
		doc[field] = kept
	}
	return removed, nil
}
