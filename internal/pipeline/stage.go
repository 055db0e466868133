package pipeline

import "context"

// Metadata is the per-invocation token handed to every stage factory. It is
// passed through unmodified; RequestID is also surfaced in error bodies.
type Metadata struct {
	RequestID string
	Headers   map[string]string
	Raw       any
}

// Executable is one unit of business logic. Run receives the current query
// and produces the next one; it may compute synchronously, wait on work
// started elsewhere, or pull from a lazy source.
type Executable interface {
	Run(ctx context.Context, query any) (any, error)
}

// Stage is a handler factory: invoked with the current query and the request
// metadata to obtain the Executable for this position in the chain.
type Stage func(query any, meta Metadata) Executable

// ExecFunc adapts an ordinary function to an Executable.
type ExecFunc func(ctx context.Context, query any) (any, error)

func (f ExecFunc) Run(ctx context.Context, query any) (any, error) { return f(ctx, query) }

// Result carries a deferred outcome.
type Result struct {
	Value any
	Err   error
}

// Async adapts work that delivers its result on a channel. Run waits for the
// first result or for context cancellation, whichever comes first. The
// underlying work is not interrupted on cancellation; only its observation
// is abandoned.
func Async(start func(query any) <-chan Result) Executable {
	return ExecFunc(func(ctx context.Context, query any) (any, error) {
		select {
		case r := <-start(query):
			return r.Value, r.Err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
}

// Source lazily yields values. Next returns ok=false once the source is
// exhausted.
type Source interface {
	Next() (value any, ok bool, err error)
}

// Lazy adapts a lazy source to an Executable. At most the first value is
// taken; a source that completes with zero values yields an absent result,
// not an error.
func Lazy(open func(query any) Source) Executable {
	return ExecFunc(func(ctx context.Context, query any) (any, error) {
		value, ok, err := open(query).Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		return value, nil
	})
}
