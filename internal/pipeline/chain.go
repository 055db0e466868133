package pipeline

import (
	"context"
	"errors"
)

// runChain executes the stages strictly in sequence: stage i+1 never starts
// before stage i's result is available, and no two stages run concurrently.
// Each stage receives exactly the value the previous stage produced; a nil
// result flows on as the next query. The first stage error aborts the chain.
//
// The deadline is enforced cooperatively: it is checked before each stage and
// observed by Executables that honor their context. A stage that ignores
// cancellation keeps consuming resources after the invocation has already
// reported a timeout; the chain only stops observing its result.
func runChain(ctx context.Context, stages []Stage, query any, meta Metadata) (any, error) {
	for i, stage := range stages {
		if err := ctx.Err(); err != nil {
			return nil, deadlineToError(err)
		}
		exec := stage(query, meta)
		out, err := exec.Run(ctx, query)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, timeoutError()
			}
			return nil, stageError(i, err)
		}
		query = out
	}
	return query, nil
}

func deadlineToError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return timeoutError()
	}
	return &Error{Kind: KindUnclassified, Message: "request aborted", Cause: err}
}
