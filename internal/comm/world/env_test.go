package world

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var launcherVars = []string{
	"RRBOSS_WORLD_SIZE", "RRBOSS_WORLD_RANK", "RRBOSS_WORLD_ADDR",
	"OMPI_COMM_WORLD_SIZE", "OMPI_COMM_WORLD_RANK",
	"PMI_SIZE", "PMI_RANK",
	"SLURM_NTASKS", "SLURM_PROCID",
}

func clearLauncherEnv(t *testing.T) {
	t.Helper()
	for _, key := range launcherVars {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestDetectAbsent(t *testing.T) {
	clearLauncherEnv(t)

	_, ok := Detect()
	require.False(t, ok)
}

func TestDetectFamilies(t *testing.T) {
	cases := []struct {
		name   string
		vars   map[string]string
		source string
		size   string
		rank   string
	}{
		{
			name:   "native variables",
			vars:   map[string]string{"RRBOSS_WORLD_SIZE": "4", "RRBOSS_WORLD_RANK": "2"},
			source: "rrboss", size: "4", rank: "2",
		},
		{
			name:   "open mpi",
			vars:   map[string]string{"OMPI_COMM_WORLD_SIZE": "8", "OMPI_COMM_WORLD_RANK": "5"},
			source: "openmpi", size: "8", rank: "5",
		},
		{
			name:   "pmi",
			vars:   map[string]string{"PMI_SIZE": "2", "PMI_RANK": "1"},
			source: "pmi", size: "2", rank: "1",
		},
		{
			name:   "slurm",
			vars:   map[string]string{"SLURM_NTASKS": "16", "SLURM_PROCID": "0"},
			source: "slurm", size: "16", rank: "0",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearLauncherEnv(t)
			for key, value := range tc.vars {
				t.Setenv(key, value)
			}

			env, ok := Detect()
			require.True(t, ok)
			require.Equal(t, tc.source, env.Source)
			require.Equal(t, tc.size, env.Size)
			require.Equal(t, tc.rank, env.Rank)
		})
	}
}

func TestDetectPrecedence(t *testing.T) {
	clearLauncherEnv(t)
	t.Setenv("SLURM_NTASKS", "16")
	t.Setenv("SLURM_PROCID", "3")
	t.Setenv("OMPI_COMM_WORLD_SIZE", "4")
	t.Setenv("OMPI_COMM_WORLD_RANK", "1")

	env, ok := Detect()
	require.True(t, ok)
	require.Equal(t, "openmpi", env.Source)
	require.Equal(t, "4", env.Size)
}

func TestDetectPicksUpRendezvousAddress(t *testing.T) {
	clearLauncherEnv(t)
	t.Setenv("RRBOSS_WORLD_SIZE", "2")
	t.Setenv("RRBOSS_WORLD_RANK", "1")
	t.Setenv("RRBOSS_WORLD_ADDR", "10.0.0.5:7077")

	env, ok := Detect()
	require.True(t, ok)
	require.Equal(t, "10.0.0.5:7077", env.Addr)
}

func TestEnvConfigParsesAndLayers(t *testing.T) {
	t.Parallel()

	env := Env{Source: "rrboss", Size: "3", Rank: "2", Addr: "127.0.0.1:7077"}
	cfg, err := env.Config(Config{DialTimeout: time.Second})
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Size)
	require.Equal(t, 2, cfg.Rank)
	require.Equal(t, "127.0.0.1:7077", cfg.Addr)
	require.Equal(t, time.Second, cfg.DialTimeout)
	require.Equal(t, DefaultJoinTimeout, cfg.JoinTimeout)
}

func TestEnvConfigBaseAddressOverride(t *testing.T) {
	t.Parallel()

	env := Env{Source: "slurm", Size: "2", Rank: "0", Addr: "10.0.0.5:7077"}
	cfg, err := env.Config(Config{Addr: "0.0.0.0:9000"})
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:9000", cfg.Addr)
}

func TestEnvConfigMalformed(t *testing.T) {
	t.Parallel()

	_, err := Env{Source: "pmi", Size: "many"}.Config(Config{})
	var malformed *MalformedEnvError
	require.ErrorAs(t, err, &malformed)
	require.Equal(t, "size", malformed.Variable)

	_, err = Env{Source: "pmi", Size: "2", Rank: "first"}.Config(Config{})
	require.ErrorAs(t, err, &malformed)
	require.Equal(t, "rank", malformed.Variable)
}

func TestEnvConfigMissingAddress(t *testing.T) {
	t.Parallel()

	_, err := Env{Source: "slurm", Size: "2", Rank: "1"}.Config(Config{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "rendezvous")
}

func TestEnvConfigRankOutOfRange(t *testing.T) {
	t.Parallel()

	_, err := Env{Source: "rrboss", Size: "2", Rank: "2", Addr: "127.0.0.1:7077"}.Config(Config{})
	require.Error(t, err)
}
