// Package comm defines the communicator abstraction handed to the fitting
// pipeline. A communicator represents the full set of cooperating processes
// in a run; a nil communicator means a world of one.
package comm

import (
	"context"
	"errors"
)

// ErrUnavailable reports that no distributed runtime is present for this
// process. It is the single failure class callers may catch to fall back to
// local execution; every other acquisition failure is a hard error.
var ErrUnavailable = errors.New("distributed runtime not available")

// Communicator is an opaque handle over a group of cooperating processes.
// Ranks are dense in [0, Size). Collectives block until every rank has
// entered the call or the context is done.
type Communicator interface {
	// Rank returns this process's position within the group.
	Rank() int

	// Size returns the number of processes in the group.
	Size() int

	// Barrier blocks until all ranks have reached the barrier.
	Barrier(ctx context.Context) error

	// Bcast replicates data from the root rank to every rank. Non-root
	// callers pass nil and receive the root's payload.
	Bcast(ctx context.Context, root int, data []byte) ([]byte, error)

	// Gather collects every rank's payload on the root, ordered by rank.
	// Non-root callers receive nil.
	Gather(ctx context.Context, root int, data []byte) ([][]byte, error)

	// Abort terminates every process in the group with the given exit code.
	Abort(code int)

	// Close releases the communicator's resources.
	Close() error
}

// RankOf returns the rank of c, treating a nil communicator as rank 0.
func RankOf(c Communicator) int {
	if c == nil {
		return 0
	}
	return c.Rank()
}

// SizeOf returns the size of c, treating a nil communicator as a world of one.
func SizeOf(c Communicator) int {
	if c == nil {
		return 1
	}
	return c.Size()
}
