// Package targets defines the objects a run fits: spectroscopic targets
// identified by the BOSS plate/MJD/fiber convention.
package targets

// TargetID packs a plate, MJD and fiber into one integer:
// plate*1000000000 + mjd*10000 + fiber.
type TargetID int64

const (
	mjdFactor   = 10000
	plateFactor = 1000000000
)

// NewTargetID packs plate, MJD and fiber into a TargetID.
func NewTargetID(plate, mjd, fiber int) TargetID {
	return TargetID(int64(plate)*plateFactor + int64(mjd)*mjdFactor + int64(fiber))
}

// Fiber returns the fiber component of the ID.
func (id TargetID) Fiber() int {
	return int(int64(id) % mjdFactor)
}

// MJD returns the MJD component of the ID.
func (id TargetID) MJD() int {
	return int((int64(id) / mjdFactor) % (plateFactor / mjdFactor))
}

// Plate returns the plate component of the ID.
func (id TargetID) Plate() int {
	return int(int64(id) / plateFactor)
}

// Target is one object to fit. Meta is propagated untouched to the output
// catalog.
type Target struct {
	ID        TargetID
	Brickname string
	Meta      map[string]string
}

// Window slices ts to the [first, first+count) range, clamped to the list.
// A negative count means "to the end".
func Window(ts []Target, first, count int) []Target {
	if first < 0 {
		first = 0
	}
	if first > len(ts) {
		first = len(ts)
	}
	rest := ts[first:]
	if count < 0 || count > len(rest) {
		return rest
	}
	return rest[:count]
}

// Filter returns the targets whose IDs appear in ids, preserving the order
// of ts.
func Filter(ts []Target, ids []TargetID) []Target {
	want := make(map[TargetID]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	out := make([]Target, 0, len(ids))
	for _, t := range ts {
		if _, ok := want[t.ID]; ok {
			out = append(out, t)
		}
	}
	return out
}
