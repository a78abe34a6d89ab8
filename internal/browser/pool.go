package browser

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds the requests one batch keeps in flight.
const DefaultConcurrency = 4

// settleAll runs fn for every index in [0, n) with at most limit calls in
// flight and returns once all of them have returned. fn reports its outcome
// through its own state; nothing it does stops its siblings.
func settleAll(ctx context.Context, limit, n int, fn func(ctx context.Context, i int)) {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			fn(ctx, i)
			return nil
		})
	}
	_ = g.Wait()
}
