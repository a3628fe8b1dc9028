package repokit

import (
	"context"
	"fmt"
	"time"
)

type guarder interface {
	Guard(context.Context) error
}

// Ready verifies st reaches a live server. When the caller brought no deadline
// the attempt is bounded by timeout (falling back to 5s). Healthcheck binaries
// turn the returned error into an exit code
func Ready(ctx context.Context, st guarder, timeout time.Duration) error {
	if st == nil {
		return fmt.Errorf("repokit: nil store")
	}
	if _, ok := ctx.Deadline(); !ok {
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return st.Guard(ctx)
}

// MustGuard is Ready for service boot paths that cannot continue without the
// store; panics on any error
func MustGuard(ctx context.Context, st guarder) {
	if err := Ready(ctx, st, 0); err != nil {
		panic(fmt.Errorf("dependency guard failed: %w", err))
	}
}
