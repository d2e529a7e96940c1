package revocation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/juju/clock"
)

// Janitor calls Purge on a Purger at a fixed interval until stopped.
type Janitor struct {
	purger   Purger
	interval time.Duration
	clock    clock.Clock
	logger   *slog.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewJanitor returns a stopped Janitor. A nil clock selects the wall clock and a nil
// logger selects slog.Default().
func NewJanitor(p Purger, interval time.Duration, clk clock.Clock, logger *slog.Logger) *Janitor {
	if clk == nil {
		clk = clock.WallClock
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{
		purger:   p,
		interval: interval,
		clock:    clk,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the purge loop in its own goroutine.
func (j *Janitor) Start() {
	go j.run()
}

// Stop ends the loop and waits for an in-flight purge to finish. Stop is idempotent
// but must only be called after Start.
func (j *Janitor) Stop() {
	j.stopOnce.Do(func() { close(j.stop) })
	<-j.done
}

func (j *Janitor) run() {
	defer close(j.done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-j.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		select {
		case <-j.stop:
			return
		case <-j.clock.After(j.interval):
			n, err := j.purger.Purge(ctx, j.clock.Now())
			if err != nil {
				j.logger.Warn("revocation purge failed", "component", "jwtauth", "error", err)
				continue
			}
			if n > 0 {
				j.logger.Debug("revocation entries purged", "component", "jwtauth", "removed", n)
			}
		}
	}
}
