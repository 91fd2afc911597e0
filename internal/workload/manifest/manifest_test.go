package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ebosslab/rrboss/internal/targets"
	rrerrors "github.com/ebosslab/rrboss/pkg/errors"
)

func writeManifest(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadManifest(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, `name: "boss dr12 subset"
targets:
  - id: 3678552080017
  - plate: 3678
    mjd: 55208
    fiber: 18
    brickname: "3678-55208"
`)

	ts, err := Source{Path: path}.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, ts, 2)

	require.Equal(t, targets.TargetID(3678552080017), ts[0].ID)
	require.Equal(t, targets.NewTargetID(3678, 55208, 18), ts[1].ID)
	require.Equal(t, "3678-55208", ts[1].Brickname)
	require.Equal(t, "boss dr12 subset", ts[0].Meta["manifest"])
}

func TestLoadManifestMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Source{Path: filepath.Join(t.TempDir(), "absent.yaml")}.Load(context.Background())
	require.Error(t, err)

	var perr *rrerrors.ParseError
	require.ErrorAs(t, err, &perr)
}

func TestLoadManifestMalformedYAML(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, "targets: [\n  - id: 1\n")

	_, err := Source{Path: path}.Load(context.Background())
	require.Error(t, err)

	var perr *rrerrors.ParseError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, path, perr.Path)
}

func TestLoadManifestUnknownField(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, `name: x
targets:
  - id: 1
spectra: /data/spPlate
`)

	_, err := Source{Path: path}.Load(context.Background())
	require.Error(t, err)

	var perr *rrerrors.ParseError
	require.ErrorAs(t, err, &perr)
}

func TestLoadManifestEntryValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		contents string
	}{
		{
			name:     "no targets",
			contents: "name: empty\n",
		},
		{
			name: "both id and triple",
			contents: `targets:
  - id: 1
    plate: 3678
    mjd: 55208
    fiber: 17
`,
		},
		{
			name: "incomplete triple",
			contents: `targets:
  - plate: 3678
    mjd: 55208
`,
		},
		{
			name: "neither id nor triple",
			contents: `targets:
  - brickname: "only-a-name"
`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			path := writeManifest(t, tc.contents)
			_, err := Source{Path: path}.Load(context.Background())
			require.Error(t, err)
		})
	}
}
