package workload

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ebosslab/rrboss/internal/comm"
	"github.com/ebosslab/rrboss/internal/results"
	"github.com/ebosslab/rrboss/internal/targets"
	"github.com/ebosslab/rrboss/internal/templates"
	rrerrors "github.com/ebosslab/rrboss/pkg/errors"
)

type stubSource struct{}

func (stubSource) Load(ctx context.Context) ([]targets.Target, error) { return nil, nil }

type stubFitter struct{}

func (stubFitter) Zfind(ctx context.Context, ts []targets.Target, tpl *templates.Set, c comm.Communicator, workers, nminima int) ([]results.ZScan, []results.ZFit, error) {
	return nil, nil, nil
}

func TestSourceRegistration(t *testing.T) {
	require.NoError(t, RegisterSource("stub-source", func(cfg SourceConfig) (Source, error) {
		return stubSource{}, nil
	}))

	factory, err := LookupSource("stub-source")
	require.NoError(t, err)

	src, err := factory(SourceConfig{})
	require.NoError(t, err)
	require.NotNil(t, src)

	require.Contains(t, SourceNames(), "stub-source")
}

func TestDuplicateSourceRejected(t *testing.T) {
	require.NoError(t, RegisterSource("stub-dup", func(cfg SourceConfig) (Source, error) {
		return stubSource{}, nil
	}))

	err := RegisterSource("stub-dup", func(cfg SourceConfig) (Source, error) {
		return stubSource{}, nil
	})
	require.Error(t, err)

	var werr *rrerrors.WorkloadError
	require.ErrorAs(t, err, &werr)
	require.Equal(t, "stub-dup", werr.Name)
}

func TestLookupUnknownSource(t *testing.T) {
	_, err := LookupSource("no-such-source")
	require.Error(t, err)

	var werr *rrerrors.WorkloadError
	require.ErrorAs(t, err, &werr)
}

func TestFitterRegistration(t *testing.T) {
	require.NoError(t, RegisterFitter("stub-fitter", func() (Fitter, error) {
		return stubFitter{}, nil
	}))

	factory, err := LookupFitter("stub-fitter")
	require.NoError(t, err)

	fitter, err := factory()
	require.NoError(t, err)
	require.NotNil(t, fitter)

	require.Contains(t, FitterNames(), "stub-fitter")

	_, err = LookupFitter("no-such-fitter")
	require.Error(t, err)
}
