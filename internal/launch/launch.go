// Package launch decides, once per process, whether a run executes on a
// distributed world or falls back to a single local process, and hands the
// resulting communicator to the pipeline entry point.
package launch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ebosslab/rrboss/internal/comm"
	"github.com/ebosslab/rrboss/internal/comm/world"
)

// FallbackNotice is printed, once, when a run degrades to local execution
// because no distributed runtime is present.
const FallbackNotice = "MPI not available, falling back to serial / multiprocessing case"

// Mode says how a run executes.
type Mode int

const (
	// ModeLocal confines the run to this process, optionally with local
	// multiprocessing inside the fitter.
	ModeLocal Mode = iota

	// ModeDistributed spans the run across a world of cooperating ranks.
	ModeDistributed
)

func (m Mode) String() string {
	if m == ModeDistributed {
		return "distributed"
	}
	return "local"
}

// ExecutionContext is the outcome of mode selection. It is constructed once
// at process start and immutable afterwards. Comm is non-nil exactly when
// Mode is ModeDistributed.
type ExecutionContext struct {
	Mode Mode
	Comm comm.Communicator
}

// Options parameterizes selection. The zero value selects with default
// policy, default world configuration, and the notice on stdout.
type Options struct {
	Policy Policy
	World  world.Config

	// Notice receives the fallback notice. Defaults to os.Stdout.
	Notice io.Writer

	// Loader acquires the distributed communicator. Defaults to
	// world.Load with Options.World; tests substitute it.
	Loader func(ctx context.Context) (comm.Communicator, error)
}

func (o Options) withDefaults() Options {
	if o.Notice == nil {
		o.Notice = os.Stdout
	}
	if o.Loader == nil {
		w := o.World
		o.Loader = func(ctx context.Context) (comm.Communicator, error) {
			return world.Load(ctx, w)
		}
	}
	return o
}

// Select picks the execution mode for this process. Restriction is
// authoritative: on a restricted node the distributed runtime is never even
// probed, whatever its availability. Off restricted nodes, a missing runtime
// (comm.ErrUnavailable, and only that) degrades to local mode with a notice;
// any other acquisition failure is returned.
func Select(ctx context.Context, opts Options) (*ExecutionContext, error) {
	opts = opts.withDefaults()

	if RestrictedNode(opts.Policy) {
		return &ExecutionContext{Mode: ModeLocal}, nil
	}

	c, err := opts.Loader(ctx)
	if err != nil {
		if errors.Is(err, comm.ErrUnavailable) {
			fmt.Fprintln(opts.Notice, FallbackNotice)
			flush(opts.Notice)
			return &ExecutionContext{Mode: ModeLocal}, nil
		}
		return nil, err
	}

	return &ExecutionContext{Mode: ModeDistributed, Comm: c}, nil
}

// flush makes the notice visible before long-running downstream work begins.
func flush(w io.Writer) {
	if s, ok := w.(interface{ Sync() error }); ok {
		s.Sync() //nolint:errcheck
	}
}

// Entry is the downstream pipeline entry point. It receives the selected
// communicator, nil in local mode, and owns all subsequent behavior.
type Entry func(ctx context.Context, c comm.Communicator) error

// Run selects the execution mode and invokes entry exactly once with the
// selected communicator. There is no reselection, no supervision, and no
// retry; once control transfers, the launcher's job is done.
func Run(ctx context.Context, opts Options, entry Entry) error {
	ec, err := Select(ctx, opts)
	if err != nil {
		return err
	}
	if ec.Comm != nil {
		defer ec.Comm.Close()
	}
	return entry(ctx, ec.Comm)
}
