package poll

import "errors"

// Sentinel errors for poll use case operations.
var (
	// ErrTickInProgress indicates that RunTick was called while a previous
	// tick is still running. Ticks are serialized; the caller should skip
	// this cycle and let the timer fire again.
	ErrTickInProgress = errors.New("poll tick already in progress")
)
