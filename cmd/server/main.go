package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"event-pipeline-api/internal/config"
	"event-pipeline-api/internal/pipeline"
	"event-pipeline-api/internal/schema"
	"event-pipeline-api/internal/stages"
	"event-pipeline-api/pkg/lambda"
)

// Local development server. It adapts plain HTTP requests into the same
// pipeline events the Lambda entrypoint produces, so handler chains behave
// identically in both environments.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	limiter := rate.NewLimiter(rate.Limit(20), 40)
	signup := pipeline.New(pipeline.Options{
		TimeoutMs:       cfg.Pipeline.TimeoutMs,
		MaxResponseSize: cfg.Pipeline.MaxResponseSize,
		AllowedOrigins:  cfg.Pipeline.AllowedOrigins,
		BodySchema:      schema.Compile(signupSchema),
		Stages: []pipeline.Stage{
			stages.RateLimit(limiter),
			signupStage(),
		},
	})

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.POST("/api/v1/signup", adapt(signup))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logrus.WithField("port", cfg.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
}

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

// adapt runs one pipeline invocation for an HTTP request and writes the
// resulting envelope back verbatim.
func adapt(pipe *pipeline.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)

		headers := make(map[string]string, len(c.Request.Header))
		for name := range c.Request.Header {
			headers[name] = c.Request.Header.Get(name)
		}
		queryParams := make(map[string]string)
		for name := range c.Request.URL.Query() {
			queryParams[name] = c.Query(name)
		}
		pathParams := make(map[string]string, len(c.Params))
		for _, p := range c.Params {
			pathParams[p.Key] = p.Value
		}

		req := &lambda.Request{
			Method:      c.Request.Method,
			Path:        c.Request.URL.Path,
			Headers:     headers,
			QueryParams: queryParams,
			PathParams:  pathParams,
			Body:        body,
		}
		meta := pipeline.Metadata{
			RequestID: c.GetHeader("X-Request-ID"),
			Headers:   headers,
		}

		resp := pipe.Handle(c.Request.Context(), req, meta)
		for name, value := range resp.Headers {
			c.Header(name, value)
		}
		c.Data(resp.StatusCode, resp.Headers["Content-Type"], resp.Body)
	}
}
