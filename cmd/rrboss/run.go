package main

import (
	"context"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ebosslab/rrboss/internal/comm"
	"github.com/ebosslab/rrboss/internal/config"
	"github.com/ebosslab/rrboss/internal/launch"
	"github.com/ebosslab/rrboss/internal/logger"
	"github.com/ebosslab/rrboss/internal/pipeline"
	"github.com/ebosslab/rrboss/internal/tui"
	"github.com/ebosslab/rrboss/internal/workload"
)

type runOptions struct {
	source        string
	fitter        string
	manifest      string
	templates     string
	templateCache string
	output        string
	zbest         string
	targetIDs     string
	minTarget     int
	nTargets      int
	nMinima       int
	workers       int
	count         int
	seed          int64
	noAbort       bool
	progress      bool
}

var runCmdRunner = executeRun

func newRunCmd(root *rootFlags) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Select an execution mode and run the fitting pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateRunOptions(opts); err != nil {
				return err
			}
			return runCmdRunner(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.source, "source", "synthetic", "Workload source providing the target list")
	cmd.Flags().StringVar(&opts.fitter, "fitter", "synthetic", "Fitter computing the redshifts")
	cmd.Flags().StringVar(&opts.manifest, "manifest", "", "Run manifest path (manifest source)")
	cmd.Flags().StringVarP(&opts.templates, "templates", "t", "", "Template directory or git URL")
	cmd.Flags().StringVar(&opts.templateCache, "template-cache", defaultTemplateCache(), "Cache directory for fetched template sets")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output zscan file")
	cmd.Flags().StringVar(&opts.zbest, "zbest", "", "Output zbest catalog")
	cmd.Flags().StringVar(&opts.targetIDs, "targetids", "", "Comma-separated list of target IDs")
	cmd.Flags().IntVar(&opts.minTarget, "mintarget", -1, "First target to process")
	cmd.Flags().IntVarP(&opts.nTargets, "ntargets", "n", -1, "The number of targets to process")
	cmd.Flags().IntVar(&opts.nMinima, "nminima", 3, "The number of redshift minima to search")
	cmd.Flags().IntVar(&opts.workers, "mp", 0, "If not distributed, the number of multiprocessing workers (defaults to half of the hardware threads)")
	cmd.Flags().IntVar(&opts.count, "count", 0, "Number of generated targets (synthetic source)")
	cmd.Flags().Int64Var(&opts.seed, "random-seed", 0, "Seed for generated targets")
	cmd.Flags().BoolVar(&opts.noAbort, "no-mpi-abort", false, "Do not abort the world upon failure of a single rank")
	cmd.Flags().BoolVar(&opts.progress, "progress", false, "Render interactive progress when on a terminal")

	return cmd
}

func executeRun(cmd *cobra.Command, root *rootFlags, opts runOptions) error {
	cfg, err := config.Load(root.configPath)
	if err != nil {
		return err
	}

	level := "info"
	if root.verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Options{Level: level, HumanReadable: true})
	if err != nil {
		return err
	}

	ids, err := parseTargetIDs(opts.targetIDs)
	if err != nil {
		return err
	}

	sourceFactory, err := workload.LookupSource(opts.source)
	if err != nil {
		return err
	}
	source, err := sourceFactory(workload.SourceConfig{
		Manifest: opts.manifest,
		Count:    opts.count,
		Seed:     opts.seed,
	})
	if err != nil {
		return err
	}

	fitterFactory, err := workload.LookupFitter(opts.fitter)
	if err != nil {
		return err
	}
	fitter, err := fitterFactory()
	if err != nil {
		return err
	}

	workers := opts.workers
	if workers == 0 {
		workers = cfg.Pipeline.Workers
	}
	nminima := opts.nMinima
	if nminima == 0 {
		nminima = cfg.Pipeline.NMinima
	}

	runID := uuid.NewString()
	pipeOpts := pipeline.Options{
		Source:        opts.source,
		Fitter:        opts.fitter,
		Manifest:      opts.manifest,
		Templates:     opts.templates,
		TemplateCache: opts.templateCache,
		ZScanPath:     opts.output,
		ZBestPath:     opts.zbest,
		TargetIDs:     ids,
		FirstTarget:   opts.minTarget,
		NTargets:      opts.nTargets,
		NMinima:       nminima,
		Workers:       workers,
		Count:         opts.count,
		Seed:          opts.seed,
		NoAbort:       opts.noAbort,
		RunID:         runID,
		ToolVersion:   version,
	}

	launchOpts := launch.Options{
		Policy: cfg.Site.Policy(),
		World:  cfg.World.WorldConfig(),
		Notice: cmd.OutOrStdout(),
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	return launch.Run(ctx, launchOpts, func(ctx context.Context, c comm.Communicator) error {
		deps := pipeline.Deps{Source: source, Fitter: fitter, Log: log}

		if opts.progress && comm.RankOf(c) == 0 && term.IsTerminal(int(os.Stdout.Fd())) {
			return runWithProgress(ctx, runID, pipeOpts, c, deps)
		}
		return pipeline.Run(ctx, pipeOpts, c, deps)
	})
}

// runWithProgress drives the pipeline underneath a Bubbletea progress view.
func runWithProgress(ctx context.Context, runID string, opts pipeline.Options, c comm.Communicator, deps pipeline.Deps) error {
	program := tea.NewProgram(tui.NewModel(runID))
	deps.Progress = func(e pipeline.Event) {
		program.Send(tui.PhaseMsg{Event: e})
	}

	done := make(chan error, 1)
	go func() {
		err := pipeline.Run(ctx, opts, c, deps)
		done <- err
		program.Send(tui.DoneMsg{Err: err})
	}()

	if _, err := program.Run(); err != nil {
		return err
	}
	return <-done
}

func defaultTemplateCache() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "rrboss", "templates")
	}
	return filepath.Join(base, "rrboss", "templates")
}
