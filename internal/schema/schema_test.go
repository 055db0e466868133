package schema

import (
	"reflect"
	"testing"
)

func signupSchema() *Schema {
	return &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"email":    {Type: "string", Format: "email"},
			"name":     {Type: "string", MinLength: Int(2)},
			"password": {Type: "string", MinLength: Int(8)},
		},
		Required:             []string{"email", "name", "password"},
		AdditionalProperties: Bool(false),
	}
}

func findingFor(findings []Finding, key string) *Finding {
	for i := range findings {
		if findings[i].Key == key {
			return &findings[i]
		}
	}
	return nil
}

func TestValidateStripsUnrecognizedFields(t *testing.T) {
	v := Compile(signupSchema())

	normalized, findings := v.Validate(map[string]any{
		"email":    "a@b.com",
		"name":     "Al",
		"password": "longenough",
		"extra":    "x",
	})
	if len(findings) > 0 {
		t.Fatalf("expected success, got findings: %v", findings)
	}
	if _, present := normalized["extra"]; present {
		t.Error("unrecognized field should have been stripped")
	}
	if normalized["email"] != "a@b.com" {
		t.Errorf("email = %v, want a@b.com", normalized["email"])
	}
}

func TestValidateReportsAllFindings(t *testing.T) {
	v := Compile(signupSchema())

	_, findings := v.Validate(map[string]any{
		"email": "bad",
		"name":  "A",
	})
	if len(findings) != 3 {
		t.Fatalf("expected 3 findings, got %d: %v", len(findings), findings)
	}

	if f := findingFor(findings, "email"); f == nil || f.Rule != "format" {
		t.Errorf("expected format finding for email, got %+v", f)
	}
	if f := findingFor(findings, "name"); f == nil || f.Rule != "minLength" {
		t.Errorf("expected minLength finding for name, got %+v", f)
	}
	if f := findingFor(findings, "password"); f == nil || f.Rule != "required" {
		t.Errorf("expected required finding for password, got %+v", f)
	}
}

func TestValidateRoundTrip(t *testing.T) {
	s := signupSchema()
	s.Properties["plan"] = &Schema{Type: "string", Default: "free"}
	v := Compile(s)

	normalized, findings := v.Validate(map[string]any{
		"email":    "a@b.com",
		"name":     "Al",
		"password": "longenough",
		"junk":     true,
	})
	if len(findings) > 0 {
		t.Fatalf("expected success, got findings: %v", findings)
	}
	if normalized["plan"] != "free" {
		t.Errorf("default not injected: plan = %v", normalized["plan"])
	}

	again, findings := v.Validate(normalized)
	if len(findings) > 0 {
		t.Fatalf("re-validating normalized value failed: %v", findings)
	}
	if !reflect.DeepEqual(again, normalized) {
		t.Errorf("normalized value changed on re-validation:\n%v\n%v", normalized, again)
	}
}

func TestValidateCoercesCompatibleTypes(t *testing.T) {
	v := Compile(&Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"age":    {Type: "integer"},
			"score":  {Type: "number"},
			"active": {Type: "boolean"},
			"label":  {Type: "string"},
		},
	})

	normalized, findings := v.Validate(map[string]any{
		"age":    "42",
		"score":  "9.5",
		"active": "true",
		"label":  float64(7),
	})
	if len(findings) > 0 {
		t.Fatalf("expected success, got findings: %v", findings)
	}
	if normalized["age"] != float64(42) {
		t.Errorf("age = %v (%T), want 42", normalized["age"], normalized["age"])
	}
	if normalized["score"] != 9.5 {
		t.Errorf("score = %v, want 9.5", normalized["score"])
	}
	if normalized["active"] != true {
		t.Errorf("active = %v, want true", normalized["active"])
	}
	if normalized["label"] != "7" {
		t.Errorf("label = %v, want \"7\"", normalized["label"])
	}
}

func TestValidateIncompatibleType(t *testing.T) {
	v := Compile(&Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"age": {Type: "integer"},
		},
	})

	_, findings := v.Validate(map[string]any{"age": "not a number"})
	if f := findingFor(findings, "age"); f == nil || f.Rule != "type" {
		t.Fatalf("expected type finding for age, got %v", findings)
	}
}

func TestValidateNestedPaths(t *testing.T) {
	v := Compile(&Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"address": {
				Type: "object",
				Properties: map[string]*Schema{
					"street": {Type: "string"},
					"zip":    {Type: "string", MinLength: Int(4)},
				},
				Required: []string{"street"},
			},
		},
	})

	_, findings := v.Validate(map[string]any{
		"address": map[string]any{"zip": "12"},
	})
	if f := findingFor(findings, "address.street"); f == nil || f.Rule != "required" {
		t.Errorf("expected required finding for address.street, got %v", findings)
	}
	if f := findingFor(findings, "address.zip"); f == nil || f.Rule != "minLength" {
		t.Errorf("expected minLength finding for address.zip, got %v", findings)
	}
}

func TestValidateWithoutStrippingReportsExtras(t *testing.T) {
	v := Compile(signupSchema(), WithoutStripping())

	_, findings := v.Validate(map[string]any{
		"email":    "a@b.com",
		"name":     "Al",
		"password": "longenough",
		"extra":    "x",
	})
	f := findingFor(findings, "extra")
	if f == nil || f.Rule != "additionalProperties" {
		t.Fatalf("expected additionalProperties finding keyed by the extra field, got %v", findings)
	}
}

func TestValidateConsolidatesCompositeRule(t *testing.T) {
	v := Compile(&Schema{
		Type: "object",
		AllOf: []*Schema{
			{Type: "object", Properties: map[string]*Schema{"a": {Type: "string"}}, Required: []string{"a"}},
			{Type: "object", Properties: map[string]*Schema{"b": {Type: "string"}}, Required: []string{"b"}},
		},
		ErrorMessage: "a and b are both required",
	})

	_, findings := v.Validate(map[string]any{})
	if len(findings) != 1 {
		t.Fatalf("expected one consolidated finding, got %d: %v", len(findings), findings)
	}
	if findings[0].Message != "a and b are both required" {
		t.Errorf("message = %q, want the consolidated message", findings[0].Message)
	}
	if findings[0].Rule != "allOf" {
		t.Errorf("rule = %q, want allOf", findings[0].Rule)
	}
}

func TestValidateCustomFormat(t *testing.T) {
	v := Compile(&Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"code": {Type: "string", Format: "even-length"},
		},
	}, WithFormat("even-length", func(s string) bool { return len(s)%2 == 0 }))

	if _, findings := v.Validate(map[string]any{"code": "abcd"}); len(findings) > 0 {
		t.Fatalf("expected success for even-length value, got %v", findings)
	}
	_, findings := v.Validate(map[string]any{"code": "abc"})
	if f := findingFor(findings, "code"); f == nil || f.Rule != "format" {
		t.Fatalf("expected format finding for code, got %v", findings)
	}
}

func TestValidateEnum(t *testing.T) {
	v := Compile(&Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"role": {Type: "string", Enum: []any{"admin", "viewer"}},
		},
	})

	_, findings := v.Validate(map[string]any{"role": "operator"})
	if f := findingFor(findings, "role"); f == nil || f.Rule != "enum" {
		t.Fatalf("expected enum finding for role, got %v", findings)
	}
}
