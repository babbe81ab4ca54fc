// Package cache stores completed runs keyed by run ID so that repeated
// seeded requests skip the simulation.
package cache

import (
	"context"
	"errors"
	"time"

	"prop-simulator/internal/domain"
)

// ErrCacheMiss is returned when no live entry exists for a key.
var ErrCacheMiss = errors.New("cache miss")

// DefaultTTL is used when a cache is constructed with a non-positive TTL.
const DefaultTTL = 24 * time.Hour

// RunCache caches simulation runs by run ID.
type RunCache interface {
	// Get returns ErrCacheMiss if the run is absent or expired.
	Get(ctx context.Context, runID string) (*domain.SimulationRun, error)
	Set(ctx context.Context, run *domain.SimulationRun) error
}

func keyFor(runID string) string {
	return "prop-simulator:run:" + runID
}
