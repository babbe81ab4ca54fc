package storage

import "errors"

// Sentinels shared by every RunStore and TrialResultStore backend. Driver
// errors are translated to these so callers never import a driver package.
var (
	// ErrNotFound means no run exists for the requested run_id.
	ErrNotFound = errors.New("run not found")

	// ErrDuplicateKey means the run_id, or a (run_id, trial_index) pair, was
	// already written. Runs and their trial rows are immutable once stored.
	ErrDuplicateKey = errors.New("duplicate key: run or trial already stored")

	// ErrInvalidInput means the record is nil or has an empty run_id.
	ErrInvalidInput = errors.New("invalid run record")
)
