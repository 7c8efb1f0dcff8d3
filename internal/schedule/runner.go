// Package schedule re-runs periodic jobs.
package schedule

import (
	"context"
	"time"

	"github.com/amcodin/SmartScraper/internal/logging"
)

// RunLoop runs fn immediately and then every interval until ctx is done.
// A failing run is logged and the loop continues. Runs never overlap: the
// next tick is measured from when the previous run finished.
func RunLoop(ctx context.Context, name string, interval time.Duration, fn func(context.Context) error) {
	if interval <= 0 {
		interval = time.Hour
	}
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		started := time.Now()
		if err := fn(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			logging.Errorf("[%s] run failed: %v", name, err)
		} else {
			logging.Debugf("[%s] run finished in %s", name, time.Since(started).Round(time.Millisecond))
		}
		timer.Reset(interval)
	}
}
