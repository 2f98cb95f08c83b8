package canonical

import (
	"context"
	"sync"
	"sync/atomic"
)

// Fan-out bounds for resolving many leads at once.
const (
	defaultWorkers = 10
	maxWorkers     = 25
)

// Resolution pairs an input lead with its resolved origin.
type Resolution struct {
	Input  string
	Origin string
	OK     bool
}

// ResolveAll canonicalizes many leads concurrently with a bounded worker
// pool. Each worker pulls the next unprocessed index until the list is
// exhausted, so results line up with inputs. Per-site crawling stays
// sequential; this fan-out is the one place the system runs concurrent
// network work.
func (r *Resolver) ResolveAll(ctx context.Context, inputs []string, workers int) []Resolution {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}
	if workers > len(inputs) {
		workers = len(inputs)
	}

	results := make([]Resolution, len(inputs))
	var next atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				idx := int(next.Add(1)) - 1
				if idx >= len(inputs) {
					return
				}
				if ctx.Err() != nil {
					results[idx] = Resolution{Input: inputs[idx]}
					continue
				}
				origin, ok := r.Resolve(ctx, inputs[idx])
				results[idx] = Resolution{Input: inputs[idx], Origin: origin, OK: ok}
			}
		}()
	}
	wg.Wait()
	return results
}
