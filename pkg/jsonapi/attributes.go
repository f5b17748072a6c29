package jsonapi

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Hyphenate converts a snake_case member name to its hyphenated alias
func Hyphenate(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}

// NormalizeKeys returns a copy of m with every top-level key hyphenated.
// When both spellings of a key are present the hyphenated one wins.
func NormalizeKeys(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		alias := Hyphenate(k)
		if _, taken := out[alias]; taken && alias != k {
			continue
		}
		out[alias] = v
	}
	return out
}

// DecodeAttributes decodes raw into dst, a struct whose JSON tags use
// hyphenated names. Keys in raw may be snake_case or hyphenated.
func DecodeAttributes(raw map[string]interface{}, dst interface{}) error {
	data, err := json.Marshal(NormalizeKeys(raw))
	if err != nil {
		return fmt.Errorf("failed to marshal attributes: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to decode attributes: %w", err)
	}
	return nil
}
