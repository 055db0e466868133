package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"

	"event-pipeline-api/internal/config"
	"event-pipeline-api/internal/pipeline"
	"event-pipeline-api/internal/schema"
	"event-pipeline-api/pkg/lambda"
)

var pipe *pipeline.Pipeline

// init builds the pipeline once; warm invocations reuse the compiled schema
// and the immutable pipeline.
func init() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logrus.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	pipe = pipeline.New(pipeline.Options{
		TimeoutMs:       cfg.Pipeline.TimeoutMs,
		MaxResponseSize: cfg.Pipeline.MaxResponseSize,
		AllowedOrigins:  cfg.Pipeline.AllowedOrigins,
		BodySchema:      schema.Compile(signupSchema),
		Stages:          []pipeline.Stage{signupStage()},
	})
}

// signupSchema validates account registrations: unrecognized fields are
// stripped, compatible types coerced.
var signupSchema = &schema.Schema{
	Type: "object",
	Properties: map[string]*schema.Schema{
		"email":    {Type: "string", Format: "email"},
		"name":     {Type: "string", MinLength: schema.Int(2)},
		"password": {Type: "string", MinLength: schema.Int(8)},
	},
	Required:             []string{"email", "name", "password"},
	AdditionalProperties: schema.Bool(false),
}

func signupStage() pipeline.Stage {
	return func(query any, meta pipeline.Metadata) pipeline.Executable {
		return pipeline.ExecFunc(func(ctx context.Context, query any) (any, error) {
			q, _ := query.(map[string]any)
			data, _ := q["data"].(map[string]any)
			return map[string]any{
				"email":     data["email"],
				"name":      data["name"],
				"requestId": meta.RequestID,
			}, nil
		})
	}
}

func handler(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	req := lambda.FromAPIGateway(event)
	meta := pipeline.Metadata{
		RequestID: event.RequestContext.RequestID,
		Headers:   event.Headers,
		Raw:       event.RequestContext,
	}

	resp := pipe.Handle(ctx, req, meta)
	return lambda.ToAPIGateway(resp), nil
}

func main() {
	awslambda.Start(handler)
}
