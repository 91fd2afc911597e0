package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnvCommandNoLauncher(t *testing.T) {
	clearLauncherEnv(t)

	out, err := executeCommand(t, "env")
	require.NoError(t, err)
	require.Contains(t, out, "launcher environment: none")
	require.Contains(t, out, "selected mode: local")
}

func TestEnvCommandRestrictedWithLauncher(t *testing.T) {
	clearLauncherEnv(t)
	t.Setenv("RRBOSS_WORLD_SIZE", "2")
	t.Setenv("RRBOSS_WORLD_RANK", "0")
	t.Setenv("NERSC_HOST", "perlmutter")

	out, err := executeCommand(t, "env")
	require.NoError(t, err)
	require.Contains(t, out, "restricted node: true (NERSC_HOST)")
	require.Contains(t, out, "launcher environment: rrboss (size 2, rank 0)")
	require.Contains(t, out, "selected mode: local")
}

func TestEnvCommandSlurmDetection(t *testing.T) {
	clearLauncherEnv(t)
	t.Setenv("SLURM_NTASKS", "4")
	t.Setenv("SLURM_PROCID", "1")
	t.Setenv("NERSC_HOST", "perlmutter")

	out, err := executeCommand(t, "env")
	require.NoError(t, err)
	require.Contains(t, out, "launcher environment: slurm (size 4, rank 1)")
}
