// Package schema provides a compile-once body validator for the request
// pipeline. A compiled Validator checks a decoded JSON object against a
// declared schema and, on success, hands back a normalized copy: compatible
// types coerced, declared defaults injected, unrecognized fields stripped.
// Callers observe the normalized value, never the original.
package schema

import (
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Schema declares the expected shape of a value. Zero-value fields mean
// "no constraint"; pointer fields distinguish "unset" from a zero limit.
type Schema struct {
	Type                 string             // "object", "string", "number", "integer", "boolean", "array"
	Properties           map[string]*Schema // object member schemas
	Required             []string           // object members that must be present
	AdditionalProperties *bool              // nil or true: extras allowed; false: extras stripped (or reported, see WithoutStripping)
	Format               string             // string format, resolved through the format registry
	MinLength            *int
	MaxLength            *int
	Minimum              *float64
	Maximum              *float64
	Enum                 []any
	Default              any     // injected when an optional member is absent
	Items                *Schema // element schema for arrays
	AllOf                []*Schema
	ErrorMessage         string // consolidated message surfaced for AllOf violations
}

// Int, Float and Bool are pointer helpers for schema literals.
func Int(v int) *int           { return &v }
func Float(v float64) *float64 { return &v }
func Bool(v bool) *bool        { return &v }

// FormatFunc reports whether s satisfies a named format.
type FormatFunc func(s string) bool

// Validator is a compiled schema. It is immutable after Compile and safe for
// concurrent use across invocations.
type Validator struct {
	schema  *Schema
	strip   bool
	formats map[string]FormatFunc
}

// Option configures a Validator at compile time.
type Option func(*Validator)

// WithFormat registers a custom format checker under name, overriding any
// built-in of the same name.
func WithFormat(name string, fn FormatFunc) Option {
	return func(v *Validator) { v.formats[name] = fn }
}

// WithoutStripping makes unrecognized fields a violation instead of silently
// removing them when AdditionalProperties is false.
func WithoutStripping() Option {
	return func(v *Validator) { v.strip = false }
}

// Compile prepares a schema for repeated validation. Construction is explicit
// and per process; nothing is registered at package load.
func Compile(s *Schema, opts ...Option) *Validator {
	check := validator.New()
	tagFormat := func(tag string) FormatFunc {
		return func(value string) bool { return check.Var(value, tag) == nil }
	}
	v := &Validator{
		schema: s,
		strip:  true,
		formats: map[string]FormatFunc{
			"email": tagFormat("email"),
			"uuid":  tagFormat("uuid"),
			"url":   tagFormat("url"),
		},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks value against the compiled schema. On success it returns
// the normalized copy and no findings. On failure it returns the full list of
// field findings, not just the first.
func (v *Validator) Validate(value map[string]any) (map[string]any, []Finding) {
	var findings []Finding
	normalized := v.validateObject("", v.schema, value, &findings)
	if len(findings) > 0 {
		return nil, findings
	}
	return normalized, nil
}

func (v *Validator) validateObject(path string, s *Schema, value map[string]any, findings *[]Finding) map[string]any {
	if len(s.AllOf) > 0 {
		v.validateAllOf(path, s, value, findings)
	}

	out := make(map[string]any, len(value))

	for name, prop := range s.Properties {
		raw, present := value[name]
		childPath := joinPath(path, name)
		if !present {
			if contains(s.Required, name) {
				*findings = append(*findings, Finding{
					Key:     childPath,
					Message: fmt.Sprintf("%s is required", name),
					Rule:    "required",
					Params:  map[string]any{"missingProperty": name},
				})
			} else if prop.Default != nil {
				out[name] = prop.Default
			}
			continue
		}
		out[name] = v.validateValue(childPath, prop, raw, findings)
	}

	allowExtra := s.AdditionalProperties == nil || *s.AdditionalProperties
	for name, raw := range value {
		if _, declared := s.Properties[name]; declared {
			continue
		}
		switch {
		case allowExtra:
			out[name] = raw
		case v.strip:
			// normalized value simply omits the field
		default:
			*findings = append(*findings, Finding{
				Key:     joinPath(path, name),
				Message: fmt.Sprintf("%s is not an allowed field", name),
				Rule:    "additionalProperties",
				Params:  map[string]any{"additionalProperty": name},
			})
		}
	}

	return out
}

// validateAllOf consolidates every constituent violation into a single
// user-facing finding carrying only the composite rule's message.
func (v *Validator) validateAllOf(path string, s *Schema, value map[string]any, findings *[]Finding) {
	var inner []Finding
	for _, sub := range s.AllOf {
		v.validateObject(path, sub, value, &inner)
	}
	if len(inner) == 0 {
		return
	}
	message := s.ErrorMessage
	if message == "" {
		message = "value does not satisfy all constraints"
	}
	key := path
	if key == "" {
		key = genericKey
	}
	*findings = append(*findings, Finding{
		Key:     key,
		Message: message,
		Rule:    "allOf",
		Params:  map[string]any{"failed": len(inner)},
	})
}

func (v *Validator) validateValue(path string, s *Schema, raw any, findings *[]Finding) any {
	coerced, ok := coerce(raw, s.Type)
	if !ok {
		*findings = append(*findings, Finding{
			Key:     path,
			Message: fmt.Sprintf("must be of type %s", s.Type),
			Rule:    "type",
			Params:  map[string]any{"type": s.Type},
		})
		return raw
	}

	switch s.Type {
	case "string":
		str := coerced.(string)
		v.checkString(path, s, str, findings)
	case "number", "integer":
		num := coerced.(float64)
		checkRange(path, s, num, findings)
	case "object":
		if child, isMap := coerced.(map[string]any); isMap {
			return v.validateObject(path, s, child, findings)
		}
	case "array":
		if items, isSlice := coerced.([]any); isSlice && s.Items != nil {
			normalized := make([]any, len(items))
			for i, item := range items {
				normalized[i] = v.validateValue(path+"."+strconv.Itoa(i), s.Items, item, findings)
			}
			return normalized
		}
	}

	if len(s.Enum) > 0 && !containsValue(s.Enum, coerced) {
		*findings = append(*findings, Finding{
			Key:     path,
			Message: fmt.Sprintf("must be one of %v", s.Enum),
			Rule:    "enum",
			Params:  map[string]any{"allowedValues": s.Enum},
		})
	}

	return coerced
}

func (v *Validator) checkString(path string, s *Schema, str string, findings *[]Finding) {
	if s.MinLength != nil && len(str) < *s.MinLength {
		*findings = append(*findings, Finding{
			Key:     path,
			Message: fmt.Sprintf("must be at least %d characters", *s.MinLength),
			Rule:    "minLength",
			Params:  map[string]any{"limit": *s.MinLength},
		})
	}
	if s.MaxLength != nil && len(str) > *s.MaxLength {
		*findings = append(*findings, Finding{
			Key:     path,
			Message: fmt.Sprintf("must be at most %d characters", *s.MaxLength),
			Rule:    "maxLength",
			Params:  map[string]any{"limit": *s.MaxLength},
		})
	}
	if s.Format != "" {
		fn, known := v.formats[s.Format]
		if known && !fn(str) {
			*findings = append(*findings, Finding{
				Key:     formatKey(path, s.Format),
				Message: fmt.Sprintf("must be a valid %s", s.Format),
				Rule:    "format",
				Params:  map[string]any{"format": s.Format},
			})
		}
	}
}

func checkRange(path string, s *Schema, num float64, findings *[]Finding) {
	if s.Minimum != nil && num < *s.Minimum {
		*findings = append(*findings, Finding{
			Key:     path,
			Message: fmt.Sprintf("must be at least %v", *s.Minimum),
			Rule:    "minimum",
			Params:  map[string]any{"limit": *s.Minimum},
		})
	}
	if s.Maximum != nil && num > *s.Maximum {
		*findings = append(*findings, Finding{
			Key:     path,
			Message: fmt.Sprintf("must be at most %v", *s.Maximum),
			Rule:    "maximum",
			Params:  map[string]any{"limit": *s.Maximum},
		})
	}
}

// coerce converts raw to the declared type when the conversion is lossless.
// Decoded JSON numbers arrive as float64.
func coerce(raw any, typ string) (any, bool) {
	switch typ {
	case "", "any":
		return raw, true
	case "string":
		switch v := raw.(type) {
		case string:
			return v, true
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), true
		case bool:
			return strconv.FormatBool(v), true
		}
	case "number":
		switch v := raw.(type) {
		case float64:
			return v, true
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f, true
			}
		}
	case "integer":
		switch v := raw.(type) {
		case float64:
			if v == float64(int64(v)) {
				return v, true
			}
		case string:
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				return float64(n), true
			}
		}
	case "boolean":
		switch v := raw.(type) {
		case bool:
			return v, true
		case string:
			if b, err := strconv.ParseBool(v); err == nil {
				return b, true
			}
		}
	case "object":
		if v, isMap := raw.(map[string]any); isMap {
			return v, true
		}
	case "array":
		if v, isSlice := raw.([]any); isSlice {
			return v, true
		}
	}
	return nil, false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsValue(list []any, v any) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
