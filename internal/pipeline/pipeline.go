// Package pipeline is the orchestration shell around the redshift fitter:
// option validation on rank 0, serial barrier-timed phases, target
// replication, fitting via the workload seam, and rank 0 output writing.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ebosslab/rrboss/internal/comm"
	"github.com/ebosslab/rrboss/internal/logger"
	"github.com/ebosslab/rrboss/internal/results"
	"github.com/ebosslab/rrboss/internal/targets"
	"github.com/ebosslab/rrboss/internal/templates"
	"github.com/ebosslab/rrboss/internal/workload"
	rrerrors "github.com/ebosslab/rrboss/pkg/errors"
)

// Event reports pipeline progress to an optional observer.
type Event struct {
	Phase   string
	Message string
	Targets int
}

// Deps are the resolved collaborators of a run.
type Deps struct {
	Source   workload.Source
	Fitter   workload.Fitter
	Log      *logger.Logger
	Progress func(Event)
}

func (d Deps) emit(phase, message string, count int) {
	if d.Progress != nil {
		d.Progress(Event{Phase: phase, Message: message, Targets: count})
	}
}

// Run executes the pipeline on this rank. Options are validated on rank 0
// only. Any phase failure is wrapped with the failing rank; in distributed
// mode the default policy aborts the world, while NoAbort (or a nil
// communicator) returns the error to the caller instead.
func Run(ctx context.Context, opts Options, c comm.Communicator, deps Deps) error {
	rank := comm.RankOf(c)
	size := comm.SizeOf(c)
	log := deps.Log

	fail := func(phase string, err error) error {
		werr := rrerrors.NewPipelineError(phase, rank, err)
		log.Error(werr, "pipeline failed")
		if c != nil && !opts.NoAbort {
			c.Abort(1)
		}
		return werr
	}

	if rank == 0 {
		if err := opts.Validate(); err != nil {
			return fail("validate", err)
		}
	}

	workers := opts.Workers
	if c == nil {
		workers = Workers(opts.Workers)
		log.Infof("running with %d processes", workers)
		warnOversubscription(log, workers)
	} else if rank == 0 {
		log.Infof("running with %d processes", size)
	}

	sw := newStopwatch(c, log)
	runStart, err := sw.start(ctx)
	if err != nil {
		return fail("start", err)
	}

	// Load the target list on rank 0.
	deps.emit("load-targets", "loading targets", 0)
	began, err := sw.start(ctx)
	if err != nil {
		return fail("load-targets", err)
	}

	var ts []targets.Target
	if rank == 0 {
		ts, err = deps.Source.Load(ctx)
		if err != nil {
			return fail("load-targets", err)
		}
		if opts.selects() {
			if len(opts.TargetIDs) > 0 {
				ts = targets.Filter(ts, opts.TargetIDs)
			} else {
				first, count := opts.window()
				ts = targets.Window(ts, first, count)
			}
		}
	}
	if err := sw.stop(ctx, began, fmt.Sprintf("read of %d targets", len(ts))); err != nil {
		return fail("load-targets", err)
	}

	// Replicate the target list to every rank.
	if c != nil {
		began, err = sw.start(ctx)
		if err != nil {
			return fail("distribute", err)
		}
		ts, err = replicate(ctx, c, ts)
		if err != nil {
			return fail("distribute", err)
		}
		if err := sw.stop(ctx, began, fmt.Sprintf("distribution of %d targets", len(ts))); err != nil {
			return fail("distribute", err)
		}
	}
	deps.emit("distribute", "targets replicated", len(ts))

	// Resolve the template set.
	began, err = sw.start(ctx)
	if err != nil {
		return fail("load-templates", err)
	}
	tpl, err := templates.Load(ctx, opts.Templates, opts.TemplateCache)
	if err != nil {
		return fail("load-templates", err)
	}
	if err := sw.stop(ctx, began, "loading templates"); err != nil {
		return fail("load-templates", err)
	}

	// Fit. The fitter owns its distribution scheme; results land on rank 0.
	deps.emit("zfind", "computing redshifts", len(ts))
	began, err = sw.start(ctx)
	if err != nil {
		return fail("zfind", err)
	}
	scans, fits, err := deps.Fitter.Zfind(ctx, ts, tpl, c, workers, opts.NMinima)
	if err != nil {
		return fail("zfind", err)
	}
	if err := sw.stop(ctx, began, "computing redshifts"); err != nil {
		return fail("zfind", err)
	}

	// Outputs are written by rank 0 only.
	if opts.ZScanPath != "" {
		began, err = sw.start(ctx)
		if err != nil {
			return fail("write-zscan", err)
		}
		if rank == 0 {
			if err := results.WriteZScan(opts.ZScanPath, scans, fits); err != nil {
				return fail("write-zscan", err)
			}
		}
		if err := sw.stop(ctx, began, "writing zscan data"); err != nil {
			return fail("write-zscan", err)
		}
	}

	if opts.ZBestPath != "" {
		began, err = sw.start(ctx)
		if err != nil {
			return fail("write-zbest", err)
		}
		if rank == 0 {
			if err := writeZBest(ctx, opts, tpl, fits); err != nil {
				return fail("write-zbest", err)
			}
		}
		if err := sw.stop(ctx, began, "writing zbest data"); err != nil {
			return fail("write-zbest", err)
		}
	}

	if err := sw.stop(ctx, runStart, "total run time"); err != nil {
		return fail("finish", err)
	}
	deps.emit("done", "run complete", len(ts))
	return nil
}

// replicate broadcasts rank 0's target list to every rank.
func replicate(ctx context.Context, c comm.Communicator, ts []targets.Target) ([]targets.Target, error) {
	var payload []byte
	if c.Rank() == 0 {
		var err error
		payload, err = json.Marshal(ts)
		if err != nil {
			return nil, err
		}
	}

	payload, err := c.Bcast(ctx, 0, payload)
	if err != nil {
		return nil, err
	}

	var out []targets.Target
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func writeZBest(ctx context.Context, opts Options, tpl *templates.Set, fits []results.ZFit) error {
	cat, err := results.OpenCatalog(opts.ZBestPath)
	if err != nil {
		return err
	}
	defer cat.Close()

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	return cat.WriteZBest(ctx, results.RunRecord{
		ID:               runID,
		CreatedAt:        time.Now(),
		ToolVersion:      opts.ToolVersion,
		TemplateVersions: tpl.Versions,
	}, fits)
}
