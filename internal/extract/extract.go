// Package extract maps a structured source object into a target shape via
// declarative dotted field paths. Extraction is pure and synchronous: it never
// mutates its inputs and never blocks.
package extract

import "strings"

// Spec declares the target shape: target field name -> dotted path into the
// source object (e.g. "city": "address.city"). Paths that resolve to nothing
// are omitted from the result rather than set to nil.
type Spec map[string]string

// Extract evaluates each declared field path against source and returns the
// assembled target value. A nil or empty spec yields an empty map.
func Extract(spec Spec, source map[string]any) map[string]any {
	target := make(map[string]any, len(spec))
	for field, path := range spec {
		if v, ok := Lookup(source, path); ok {
			target[field] = v
		}
	}
	return target
}

// Lookup resolves a dotted path against a nested map structure. The second
// return value reports whether every segment of the path resolved.
func Lookup(source map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	segments := strings.Split(path, ".")
	var current any = source
	for _, seg := range segments {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
