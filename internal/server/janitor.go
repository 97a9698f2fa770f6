package server

import (
	"log"
	"time"

	"github.com/gorhill/cronexpr"

	"github.com/shopmate/backend/internal/telemetry"
	"github.com/shopmate/backend/session/inmemory"
)

// Janitor sweeps expired in-memory sessions on a cron schedule. Redis-backed
// sessions expire on their own TTL and need no sweeping.
type Janitor struct {
	store *inmemory.Store
	expr  *cronexpr.Expression
	stop  chan struct{}
}

// NewJanitor parses the cron spec, falling back to hourly on a bad spec.
func NewJanitor(store *inmemory.Store, spec string) *Janitor {
	expr, err := cronexpr.Parse(spec)
	if err != nil {
		log.Printf("[JANITOR] bad cron spec %q, using hourly: %v", spec, err)
		expr = cronexpr.MustParse("0 * * * *")
	}
	return &Janitor{store: store, expr: expr, stop: make(chan struct{})}
}

func (j *Janitor) Start() {
	go func() {
		for {
			next := j.expr.Next(time.Now())
			if next.IsZero() {
				return
			}
			select {
			case <-j.stop:
				return
			case <-time.After(time.Until(next)):
				if removed := j.store.Sweep(); removed > 0 {
					telemetry.JanitorSweeps.Add(float64(removed))
					log.Printf("[JANITOR] removed %d expired sessions", removed)
				}
			}
		}
	}()
}

func (j *Janitor) Stop() { close(j.stop) }
