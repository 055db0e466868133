package pipeline

import "net/http"

// Rule maps an HTTP status to the set of failure kinds it covers.
type Rule struct {
	Status int
	Kinds  []Kind
}

// Classifier turns a caught failure into an HTTP status using an ordered rule
// table: user-supplied rules first, then the built-in rules for validation,
// timeout and payload size. First matching kind wins; unmatched failures
// default to 500.
type Classifier struct {
	rules []Rule
}

// NewClassifier prepends userRules to the built-in table. A user rule for
// status 400 merges with the built-in 400 validation rule rather than
// replacing it: the validation kind joins the user rule's kind set.
func NewClassifier(userRules []Rule) *Classifier {
	rules := make([]Rule, 0, len(userRules)+3)
	merged400 := false
	for _, r := range userRules {
		if r.Status == http.StatusBadRequest {
			r.Kinds = append(append([]Kind(nil), r.Kinds...), KindSchemaValidation)
			merged400 = true
		}
		rules = append(rules, r)
	}
	if !merged400 {
		rules = append(rules, Rule{Status: http.StatusBadRequest, Kinds: []Kind{KindSchemaValidation}})
	}
	rules = append(rules,
		Rule{Status: http.StatusRequestTimeout, Kinds: []Kind{KindTimeout}},
		Rule{Status: http.StatusRequestEntityTooLarge, Kinds: []Kind{KindPayloadTooLarge}},
	)
	return &Classifier{rules: rules}
}

// Status returns the first rule's status whose kind set contains err's kind.
func (c *Classifier) Status(err error) int {
	kind := KindOf(err)
	for _, r := range c.rules {
		for _, k := range r.Kinds {
			if k == kind {
				return r.Status
			}
		}
	}
	return http.StatusInternalServerError
}
