package pipeline

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/ebosslab/rrboss/internal/targets"
	rrerrors "github.com/ebosslab/rrboss/pkg/errors"
)

// Options is the full option surface of a run. Target selection by explicit
// IDs and by first/count window are mutually exclusive; at least one output
// (zscan dump or zbest catalog) must be named.
type Options struct {
	// Source and Fitter name registered workload providers.
	Source string `validate:"required"`
	Fitter string `validate:"required"`

	// Manifest is the run manifest path for manifest-backed sources.
	Manifest string

	// Templates is a template directory or git URL; empty means no
	// templates. TemplateCache holds git clones.
	Templates     string
	TemplateCache string

	// ZScanPath receives the full scan dump; ZBestPath the best-fit
	// catalog. At least one is required.
	ZScanPath string
	ZBestPath string

	// TargetIDs restricts the run to an explicit subset.
	TargetIDs []targets.TargetID

	// FirstTarget and NTargets window the target list. Negative means
	// unset; NTargets >= 0 with FirstTarget unset starts the window at 0.
	FirstTarget int
	NTargets    int

	// NMinima is the number of redshift minima to search per target.
	NMinima int `validate:"min=1"`

	// Workers caps local parallelism; 0 picks a hardware-based default.
	Workers int `validate:"min=0"`

	// Count and Seed parameterize generated sources.
	Count int
	Seed  int64

	// NoAbort returns rank failures as errors instead of aborting the
	// world.
	NoAbort bool

	// RunID identifies this run in the zbest catalog; generated when
	// empty. ToolVersion is recorded alongside it.
	RunID       string
	ToolVersion string
}

var (
	optionsValidatorOnce sync.Once
	optionsValidator     *validator.Validate
)

// Validate checks the option surface. Only rank 0 calls this; violations
// there decide the fate of the whole world.
func (o Options) Validate() error {
	optionsValidatorOnce.Do(func() {
		optionsValidator = validator.New()
	})

	if err := optionsValidator.Struct(o); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			first := verrs[0]
			return rrerrors.NewValidationError(
				first.Field(),
				fmt.Sprintf("failed %q constraint (value %v)", first.Tag(), first.Value()),
				err,
			)
		}
		return err
	}

	if o.ZScanPath == "" && o.ZBestPath == "" {
		return rrerrors.NewValidationError("output", "a zscan or zbest output is required", nil)
	}

	if len(o.TargetIDs) > 0 && (o.FirstTarget >= 0 || o.NTargets >= 0) {
		return rrerrors.NewValidationError("targetids", "cannot select targets by both ID and range", nil)
	}

	return nil
}

// window resolves the first/count pair the way the option surface defines
// it: a count without a first starts at zero.
func (o Options) window() (first, count int) {
	first = o.FirstTarget
	count = o.NTargets
	if first < 0 && count >= 0 {
		first = 0
	}
	return first, count
}

// selects reports whether any target selection is requested.
func (o Options) selects() bool {
	return len(o.TargetIDs) > 0 || o.FirstTarget >= 0 || o.NTargets >= 0
}
