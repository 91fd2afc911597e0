// Package synthetic provides a generated workload for exercising the launch
// fabric end to end: a deterministic target source and a fitter whose
// pseudo chi-squared minima derive from the target IDs alone. It validates
// distribution, gathering, and catalog writing without touching spectra.
package synthetic

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/ebosslab/rrboss/internal/comm"
	"github.com/ebosslab/rrboss/internal/results"
	"github.com/ebosslab/rrboss/internal/targets"
	"github.com/ebosslab/rrboss/internal/templates"
)

var spectypes = []string{"GALAXY", "QSO", "STAR"}

// Source generates Count deterministic targets from Seed.
type Source struct {
	Count int
	Seed  int64
}

// Load produces the generated target list.
func (s Source) Load(ctx context.Context) ([]targets.Target, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(s.Seed))
	ts := make([]targets.Target, 0, s.Count)
	for i := 0; i < s.Count; i++ {
		plate := 3500 + rng.Intn(500)
		mjd := 55000 + rng.Intn(1000)
		fiber := i%1000 + 1
		ts = append(ts, targets.Target{
			ID:        targets.NewTargetID(plate, mjd, fiber),
			Brickname: fmt.Sprintf("%04d-%05d", plate, mjd),
			Meta:      map[string]string{"source": "synthetic"},
		})
	}
	return ts, nil
}

// Fitter computes pseudo fits, rank-striped across the communicator with a
// local worker pool on each rank. Results come back on rank 0 only.
type Fitter struct{}

// partial is one rank's share of the results, tagged with the position of
// each target in the replicated list so rank 0 can restore order.
type partial struct {
	Pos   []int            `json:"pos"`
	Scans []results.ZScan  `json:"scans"`
	Fits  [][]results.ZFit `json:"fits"`
}

// Zfind fits ts and returns scan curves plus nminima fit rows per target.
func (Fitter) Zfind(ctx context.Context, ts []targets.Target, tpl *templates.Set, c comm.Communicator, workers, nminima int) ([]results.ZScan, []results.ZFit, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	rank := comm.RankOf(c)
	size := comm.SizeOf(c)
	if workers < 1 {
		workers = 1
	}
	if nminima < 1 {
		nminima = 1
	}

	// This rank's stripe of the target list.
	var mine []int
	for i := rank; i < len(ts); i += size {
		mine = append(mine, i)
	}

	local := partial{
		Pos:   mine,
		Scans: make([]results.ZScan, len(mine)),
		Fits:  make([][]results.ZFit, len(mine)),
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				scan, fits := fitOne(ts[local.Pos[j]], tpl, nminima)
				local.Scans[j] = scan
				local.Fits[j] = fits
			}
		}()
	}

	for j := range mine {
		select {
		case jobs <- j:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, nil, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	if size == 1 {
		return assemble([]partial{local})
	}

	payload, err := json.Marshal(local)
	if err != nil {
		return nil, nil, err
	}

	parts, err := c.Gather(ctx, 0, payload)
	if err != nil {
		return nil, nil, err
	}
	if rank != 0 {
		return nil, nil, nil
	}

	decoded := make([]partial, len(parts))
	for i, raw := range parts {
		if err := json.Unmarshal(raw, &decoded[i]); err != nil {
			return nil, nil, fmt.Errorf("synthetic: decode rank %d results: %w", i, err)
		}
	}
	return assemble(decoded)
}

// assemble merges per-rank partials back into target order.
func assemble(parts []partial) ([]results.ZScan, []results.ZFit, error) {
	type entry struct {
		pos  int
		scan results.ZScan
		fits []results.ZFit
	}

	var entries []entry
	for _, p := range parts {
		for j, pos := range p.Pos {
			entries = append(entries, entry{pos: pos, scan: p.Scans[j], fits: p.Fits[j]})
		}
	}
	sort.Slice(entries, func(a, b int) bool { return entries[a].pos < entries[b].pos })

	scans := make([]results.ZScan, 0, len(entries))
	var fits []results.ZFit
	for _, e := range entries {
		scans = append(scans, e.scan)
		fits = append(fits, e.fits...)
	}
	return scans, fits, nil
}

// fitOne derives a scan curve and nminima minima from the target ID. The
// same target always fits to the same redshift, whatever rank fits it.
func fitOne(t targets.Target, tpl *templates.Set, nminima int) (results.ZScan, []results.ZFit) {
	rng := rand.New(rand.NewSource(int64(t.ID)))

	spectype := spectypes[rng.Intn(len(spectypes))]
	zbest := rng.Float64() * 3.0
	base := 80.0 + rng.Float64()*40.0

	const points = 48
	scan := results.ZScan{TargetID: t.ID, SpecType: spectype, Points: make([]results.ZScanPoint, points)}
	for i := 0; i < points; i++ {
		z := 3.0 * float64(i) / float64(points-1)
		scan.Points[i] = results.ZScanPoint{
			Z:    z,
			Chi2: base + 50.0*math.Pow(z-zbest, 2),
		}
	}

	version := "unknown"
	if tpl != nil {
		if v, ok := tpl.Versions[spectype]; ok {
			version = v
		}
	}

	fits := make([]results.ZFit, nminima)
	for n := 0; n < nminima; n++ {
		z := zbest
		if n > 0 {
			z = rng.Float64() * 3.0
		}
		zwarn := 0
		if n == 0 && rng.Float64() < 0.02 {
			zwarn = 4
		}
		fits[n] = results.ZFit{
			TargetID:        t.ID,
			ZNum:            n,
			Z:               z,
			ZErr:            1e-4 + rng.Float64()*1e-3,
			ZWarn:           zwarn,
			Chi2:            base + float64(n)*rng.Float64()*25.0,
			SpecType:        spectype,
			TemplateVersion: version,
		}
	}
	return scan, fits
}
