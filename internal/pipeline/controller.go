// Package pipeline turns one inbound HTTP-style event into one HTTP-style
// response by running it through an ordered chain of handler stages, under a
// single per-invocation deadline and a response-size cap. Every failure mode
// is caught exactly once at the pipeline boundary and converted into a
// well-formed envelope; nothing is retried and nothing is re-thrown.
package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"event-pipeline-api/internal/extract"
	"event-pipeline-api/internal/schema"
	"event-pipeline-api/pkg/lambda"
)

// DefaultTimeoutMs is the per-invocation deadline applied when none is
// configured, slightly under the Lambda 30s integration limit.
const DefaultTimeoutMs = 29000

// Options configures a Pipeline. The zero value is usable: no validation, no
// extraction, an empty chain and default limits.
type Options struct {
	TimeoutMs       int               // whole-invocation deadline, default 29000
	MaxResponseSize int               // serialized success body cap, default 6 MiB
	BodySchema      *schema.Validator // when set, POST/PUT JSON bodies are validated before any stage runs
	QuerySpec       extract.Spec      // produces the initial query from the full request
	BodySpec        extract.Spec      // reshapes the parsed body; a non-empty result replaces the request body
	Stages          []Stage           // ordered handler chain, never reordered or deduplicated
	ErrorRules      []Rule            // user status rules, evaluated before the built-ins
	AllowedOrigins  []string          // CORS allow-list; empty means wildcard
	Logger          *logrus.Logger
}

// Pipeline is immutable after New and safe to reuse across warm invocations.
type Pipeline struct {
	timeout    time.Duration
	validator  *schema.Validator
	querySpec  extract.Spec
	bodySpec   extract.Spec
	stages     []Stage
	classifier *Classifier
	assembler  *Assembler
	log        *logrus.Logger
}

func New(opts Options) *Pipeline {
	timeoutMs := opts.TimeoutMs
	if timeoutMs <= 0 {
		timeoutMs = DefaultTimeoutMs
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Pipeline{
		timeout:    time.Duration(timeoutMs) * time.Millisecond,
		validator:  opts.BodySchema,
		querySpec:  opts.QuerySpec,
		bodySpec:   opts.BodySpec,
		stages:     opts.Stages,
		classifier: NewClassifier(opts.ErrorRules),
		assembler: &Assembler{
			MaxBodySize: opts.MaxResponseSize,
			Origins:     OriginPolicy{AllowedOrigins: opts.AllowedOrigins},
		},
		log: log,
	}
}

// Handle runs one invocation to completion and always returns a well-formed
// response; errors never escape to the caller. The deadline is armed once,
// before validation, and is never renewed per stage.
func (p *Pipeline) Handle(ctx context.Context, req *lambda.Request, meta Metadata) *lambda.Response {
	start := time.Now()
	if meta.RequestID == "" {
		meta.RequestID = uuid.New().String()
	}
	if meta.Headers == nil {
		meta.Headers = req.Headers
	}
	origin := req.Origin()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	entry := p.log.WithFields(logrus.Fields{
		"request_id": meta.RequestID,
		"method":     req.Method,
		"path":       req.Path,
	})

	result, err := p.run(ctx, req, meta, entry)

	var resp *lambda.Response
	if err == nil {
		resp, err = p.assembler.Success(result, origin)
	}
	if err != nil {
		status := p.classifier.Status(err)
		entry.WithFields(logrus.Fields{
			"status":      status,
			"error":       err.Error(),
			"error_kind":  KindOf(err).String(),
			"duration_ms": time.Since(start).Milliseconds(),
		}).Error("Request failed")
		return p.assembler.Failure(status, err, meta, origin)
	}

	entry.WithFields(logrus.Fields{
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Request completed")
	return resp
}

// run drives the invocation through its states: validating, extracting, then
// the stage chain. The deadline is checked at every state boundary; elapsing
// before the final stage's success yields a timeout failure regardless of
// which state is active.
func (p *Pipeline) run(ctx context.Context, req *lambda.Request, meta Metadata, entry *logrus.Entry) (any, error) {
	body, err := p.validate(ctx, req, entry)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, deadlineToError(err)
	}
	entry.WithField("state", "extracting").Debug("Extracting query")
	query, err := p.extractQuery(req, body)
	if err != nil {
		return nil, err
	}

	if len(p.stages) == 0 {
		// empty chain completes with an absent result
		return nil, nil
	}

	result, err := runChain(ctx, p.stages, query, meta)
	if err != nil {
		return nil, err
	}
	// deadline elapsed before the chain's success was observed
	if err := ctx.Err(); err != nil {
		return nil, deadlineToError(err)
	}
	return result, nil
}

// validate gates the request body through the compiled schema. It runs only
// when a schema is configured, the method bears a body and the declared
// content type is JSON; a non-JSON declaration on a body-bearing method is a
// content-type failure. It returns the parsed (and possibly normalized) body
// for the extraction state.
func (p *Pipeline) validate(ctx context.Context, req *lambda.Request, entry *logrus.Entry) (map[string]any, error) {
	bodyBearing := req.Method == "POST" || req.Method == "PUT"
	declared := contentType(req)

	if p.validator != nil && bodyBearing && declared != "" && declared != "application/json" {
		return nil, &Error{
			Kind:    KindContentType,
			Message: "content type " + declared + " is not supported, expected application/json",
		}
	}

	body, err := p.parseBody(req)
	if err != nil {
		return nil, err
	}

	if p.validator == nil || !bodyBearing || declared != "application/json" {
		return body, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, deadlineToError(err)
	}
	entry.WithField("state", "validating").Debug("Validating request body")
	normalized, findings := p.validator.Validate(body)
	if len(findings) > 0 {
		return nil, validationError(findings)
	}
	// downstream consumers observe the normalized body, not the original
	serialized, merr := json.Marshal(normalized)
	if merr == nil {
		req.Body = serialized
	}
	return normalized, nil
}

// parseBody decodes a non-empty request body when anything downstream needs
// its structure. A body that fails to decode fails the invocation before any
// handler executes, with a kind distinct from validation failure.
func (p *Pipeline) parseBody(req *lambda.Request) (map[string]any, error) {
	if len(req.Body) == 0 {
		return nil, nil
	}
	if p.validator == nil && p.bodySpec == nil && p.querySpec == nil {
		return nil, nil
	}
	var body map[string]any
	if err := json.Unmarshal(req.Body, &body); err != nil {
		return nil, &Error{Kind: KindExtraction, Message: "malformed request body", Cause: err}
	}
	return body, nil
}

// extractQuery produces the initial typed query and, when a body spec is
// configured, the reshaped body. A non-empty reshaped body replaces the
// request body for all downstream consumers.
func (p *Pipeline) extractQuery(req *lambda.Request, body map[string]any) (any, error) {
	if p.bodySpec != nil && body != nil {
		reshaped := extract.Extract(p.bodySpec, body)
		if len(reshaped) > 0 {
			serialized, err := json.Marshal(reshaped)
			if err != nil {
				return nil, &Error{Kind: KindExtraction, Message: "body reshape serialization failed", Cause: err}
			}
			req.Body = serialized
			body = reshaped
		}
	}

	var query map[string]any
	if p.querySpec != nil {
		query = extract.Extract(p.querySpec, requestSource(req, body))
	} else {
		query = make(map[string]any)
	}
	if body != nil {
		if _, set := query["data"]; !set {
			query["data"] = body
		}
	}
	return query, nil
}

// requestSource is the view of the full incoming request that query
// extraction paths resolve against.
func requestSource(req *lambda.Request, body map[string]any) map[string]any {
	return map[string]any{
		"method":     req.Method,
		"path":       req.Path,
		"headers":    toAnyMap(req.Headers),
		"query":      toAnyMap(req.QueryParams),
		"pathParams": toAnyMap(req.PathParams),
		"body":       body,
	}
}

func toAnyMap(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func contentType(req *lambda.Request) string {
	ct := req.Header("Content-Type")
	return strings.TrimSpace(strings.Split(ct, ";")[0])
}
