package lambda

import "strings"

// Request represents a generic HTTP-style event for serverless functions.
// It is immutable for the duration of one invocation except for Body, which
// the pipeline may replace with a reshaped form before handlers run.
type Request struct {
	Method      string            `json:"method"`
	Path        string            `json:"path"`
	Headers     map[string]string `json:"headers"`
	QueryParams map[string]string `json:"query_params"`
	PathParams  map[string]string `json:"path_params"`
	Body        []byte            `json:"body"`
}

// Header returns the value for name using case-insensitive matching,
// as HTTP header names are case-insensitive.
func (r *Request) Header(name string) string {
	if v, ok := r.Headers[name]; ok {
		return v
	}
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// Origin returns the declared request origin, or "" when absent.
func (r *Request) Origin() string {
	return r.Header("Origin")
}

// Response represents a generic HTTP response for serverless functions.
type Response struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers"`
	Body       []byte            `json:"body"`
}
