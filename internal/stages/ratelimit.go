package stages

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"event-pipeline-api/internal/pipeline"
)

// RateLimit returns a stage that aborts the chain when the shared limiter is
// exhausted. The limiter outlives single invocations; pass the same instance
// to every pipeline that should share the budget.
func RateLimit(limiter *rate.Limiter) pipeline.Stage {
	return func(query any, meta pipeline.Metadata) pipeline.Executable {
		return pipeline.ExecFunc(func(ctx context.Context, query any) (any, error) {
			if !limiter.Allow() {
				return nil, fmt.Errorf("rate limit exceeded: %.1f requests per second", float64(limiter.Limit()))
			}
			return query, nil
		})
	}
}
