package tools

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ExecuteBatch runs independent tool calls concurrently on a worker pool
// sized to available parallelism and returns results in call order
// regardless of completion order. Each result slot is written by exactly one
// worker, so no locking is needed. A failing call never cancels its
// siblings: Execute captures every failure in its result.
func (r *Registry) ExecuteBatch(ctx context.Context, calls []Call, execCtx ExecutionContext) []*ToolResult {
	results := make([]*ToolResult, len(calls))
	if len(calls) == 0 {
		return results
	}

	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for i, call := range calls {
		g.Go(func() error {
			results[i] = r.Execute(ctx, call.Name, call.Params, execCtx)
			return nil
		})
	}
	// Workers never return errors; Wait is pure fan-in.
	_ = g.Wait()
	return results
}
