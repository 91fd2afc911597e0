package targets

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTargetIDRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		plate, mjd, fiber int
	}{
		{3678, 55208, 17},
		{266, 51602, 1},
		{7339, 56772, 1000},
		{0, 0, 0},
	}

	for _, tc := range cases {
		id := NewTargetID(tc.plate, tc.mjd, tc.fiber)
		require.Equal(t, tc.plate, id.Plate())
		require.Equal(t, tc.mjd, id.MJD())
		require.Equal(t, tc.fiber, id.Fiber())
	}
}

func TestTargetIDPackingMatchesConvention(t *testing.T) {
	t.Parallel()

	// plate*1000000000 + mjd*10000 + fiber
	require.Equal(t, TargetID(3678_55208_0017), NewTargetID(3678, 55208, 17))
}

func TestWindow(t *testing.T) {
	t.Parallel()

	ts := []Target{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}

	require.Equal(t, ts[1:3], Window(ts, 1, 2))
	require.Equal(t, ts[2:], Window(ts, 2, -1))
	require.Equal(t, ts, Window(ts, 0, 100))
	require.Empty(t, Window(ts, 10, 2))
	require.Equal(t, ts[:1], Window(ts, -5, 1))
}

func TestFilterPreservesOrder(t *testing.T) {
	t.Parallel()

	ts := []Target{{ID: 10}, {ID: 20}, {ID: 30}}

	got := Filter(ts, []TargetID{30, 10})
	require.Equal(t, []Target{{ID: 10}, {ID: 30}}, got)

	require.Empty(t, Filter(ts, nil))
	require.Empty(t, Filter(ts, []TargetID{99}))
}
