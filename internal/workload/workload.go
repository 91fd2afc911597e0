// Package workload is the seam between the launch fabric and the external
// collaborators that own spectra and fitting. Sources produce the target
// list; fitters turn targets into redshift fits. Implementations register
// here by name so the CLI can resolve them.
package workload

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ebosslab/rrboss/internal/comm"
	"github.com/ebosslab/rrboss/internal/results"
	"github.com/ebosslab/rrboss/internal/targets"
	"github.com/ebosslab/rrboss/internal/templates"
	rrerrors "github.com/ebosslab/rrboss/pkg/errors"
)

// Source produces the target list of a run. Load is called on rank 0 only;
// the pipeline replicates the result to the other ranks.
type Source interface {
	Load(ctx context.Context) ([]targets.Target, error)
}

// Fitter computes redshift fits for the given targets. It owns its internal
// work partitioning across the communicator and its local parallelism;
// results are returned on rank 0 only.
type Fitter interface {
	Zfind(ctx context.Context, ts []targets.Target, tpl *templates.Set, c comm.Communicator, workers, nminima int) ([]results.ZScan, []results.ZFit, error)
}

// SourceConfig carries the CLI-level parameters a source may need.
type SourceConfig struct {
	// Manifest is the run manifest path for manifest-backed sources.
	Manifest string

	// Count and Seed parameterize generated sources.
	Count int
	Seed  int64
}

// SourceFactory builds a Source from its configuration.
type SourceFactory func(cfg SourceConfig) (Source, error)

// FitterFactory builds a Fitter.
type FitterFactory func() (Fitter, error)

var (
	mu      sync.RWMutex
	sources = make(map[string]SourceFactory)
	fitters = make(map[string]FitterFactory)
)

// RegisterSource makes a source available under name.
func RegisterSource(name string, factory SourceFactory) error {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := sources[name]; exists {
		return rrerrors.NewWorkloadError(name, fmt.Errorf("source %q already registered", name))
	}
	sources[name] = factory
	return nil
}

// LookupSource resolves a registered source factory.
func LookupSource(name string) (SourceFactory, error) {
	mu.RLock()
	defer mu.RUnlock()

	factory, ok := sources[name]
	if !ok {
		return nil, rrerrors.NewWorkloadError(name, fmt.Errorf("unknown source %q (have %v)", name, keys(sources)))
	}
	return factory, nil
}

// RegisterFitter makes a fitter available under name.
func RegisterFitter(name string, factory FitterFactory) error {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := fitters[name]; exists {
		return rrerrors.NewWorkloadError(name, fmt.Errorf("fitter %q already registered", name))
	}
	fitters[name] = factory
	return nil
}

// LookupFitter resolves a registered fitter factory.
func LookupFitter(name string) (FitterFactory, error) {
	mu.RLock()
	defer mu.RUnlock()

	factory, ok := fitters[name]
	if !ok {
		return nil, rrerrors.NewWorkloadError(name, fmt.Errorf("unknown fitter %q (have %v)", name, keys(fitters)))
	}
	return factory, nil
}

// SourceNames lists the registered sources, sorted.
func SourceNames() []string {
	mu.RLock()
	defer mu.RUnlock()
	return keys(sources)
}

// FitterNames lists the registered fitters, sorted.
func FitterNames() []string {
	mu.RLock()
	defer mu.RUnlock()
	return keys(fitters)
}

func keys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
