package pipeline

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"event-pipeline-api/internal/schema"
	"event-pipeline-api/pkg/lambda"
)

// DefaultMaxResponseSize caps serialized success bodies at 6 MiB.
const DefaultMaxResponseSize = 6 * 1024 * 1024

// securityHeaders is the fixed header set applied to every response before
// the CORS and content-type headers.
var securityHeaders = map[string]string{
	"X-Content-Type-Options":    "nosniff",
	"X-Frame-Options":           "DENY",
	"X-XSS-Protection":          "1; mode=block",
	"Referrer-Policy":           "strict-origin-when-cross-origin",
	"Content-Security-Policy":   "default-src 'self'",
	"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
}

// Assembler builds the final response envelope: status, composed headers and
// serialized body. Envelopes are created fresh per invocation.
type Assembler struct {
	MaxBodySize int
	Origins     OriginPolicy
}

// errorBody is the uniform failure envelope. Errors carries the field
// findings for validation failures only.
type errorBody struct {
	Code      int              `json:"code"`
	Message   string           `json:"message"`
	RequestID string           `json:"requestId,omitempty"`
	Timestamp string           `json:"timestamp"`
	Errors    []schema.Finding `json:"errors,omitempty"`
}

// Success serializes result into a 200 envelope. A serialized body larger
// than the configured cap is discarded and reported as a payload-too-large
// failure; oversized results are never truncated or streamed.
func (a *Assembler) Success(result any, origin string) (*lambda.Response, error) {
	var body []byte
	if result != nil {
		var err error
		body, err = json.Marshal(result)
		if err != nil {
			return nil, &Error{Kind: KindUnclassified, Message: "response serialization failed", Cause: err}
		}
	}
	if max := a.maxBodySize(); len(body) > max {
		return nil, &Error{
			Kind:    KindPayloadTooLarge,
			Message: fmt.Sprintf("serialized response (%d bytes) exceeds maximum size (%d bytes)", len(body), max),
		}
	}
	return &lambda.Response{
		StatusCode: http.StatusOK,
		Headers:    a.headers(origin),
		Body:       body,
	}, nil
}

// Failure builds the envelope for a classified failure. The body always
// carries a machine-readable code, a message, the request id and an RFC3339
// timestamp; validation failures additionally carry the finding list.
func (a *Assembler) Failure(status int, err error, meta Metadata, origin string) *lambda.Response {
	body := errorBody{
		Code:      status,
		Message:   failureMessage(err),
		RequestID: meta.RequestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if perr, ok := err.(*Error); ok {
		body.Errors = perr.Findings
	}
	serialized, _ := json.Marshal(body)
	return &lambda.Response{
		StatusCode: status,
		Headers:    a.headers(origin),
		Body:       serialized,
	}
}

// headers composes the fixed security set, then the CORS header, then the
// content-type header; later entries overwrite earlier ones on collision.
func (a *Assembler) headers(origin string) map[string]string {
	h := make(map[string]string, len(securityHeaders)+2)
	for k, v := range securityHeaders {
		h[k] = v
	}
	h["Access-Control-Allow-Origin"] = a.Origins.Allow(origin)
	h["Content-Type"] = "application/json"
	return h
}

func (a *Assembler) maxBodySize() int {
	if a.MaxBodySize > 0 {
		return a.MaxBodySize
	}
	return DefaultMaxResponseSize
}

func failureMessage(err error) string {
	if perr, ok := err.(*Error); ok {
		return perr.Message
	}
	return "an unexpected error occurred"
}
