package world

import (
	"os"
	"strconv"
)

// Env is the raw launcher environment for this process: who started the
// world, how large it is, and where ranks rendezvous. Values are kept as
// strings so that presence and well-formedness stay separate questions.
type Env struct {
	Source string
	Size   string
	Rank   string
	Addr   string
}

// Launcher environment families, in precedence order.
var families = []struct {
	source  string
	sizeVar string
	rankVar string
}{
	{"rrboss", "RRBOSS_WORLD_SIZE", "RRBOSS_WORLD_RANK"},
	{"openmpi", "OMPI_COMM_WORLD_SIZE", "OMPI_COMM_WORLD_RANK"},
	{"pmi", "PMI_SIZE", "PMI_RANK"},
	{"slurm", "SLURM_NTASKS", "SLURM_PROCID"},
}

// Detect inspects the process environment for a launcher family. It returns
// ok=false when no family's size variable is set, meaning this process was
// not started by a multi-process launcher. Detection never errors: malformed
// values are surfaced later by Env.Config.
func Detect() (Env, bool) {
	for _, f := range families {
		size, ok := os.LookupEnv(f.sizeVar)
		if !ok {
			continue
		}
		return Env{
			Source: f.source,
			Size:   size,
			Rank:   os.Getenv(f.rankVar),
			Addr:   os.Getenv("RRBOSS_WORLD_ADDR"),
		}, true
	}
	return Env{}, false
}

// Config parses the detected environment into a world Config, layering it
// over base (which supplies timeouts and any rendezvous override). A present
// but malformed environment is a hard error, not grounds for fallback.
func (e Env) Config(base Config) (Config, error) {
	size, err := strconv.Atoi(e.Size)
	if err != nil {
		return Config{}, &MalformedEnvError{Source: e.Source, Variable: "size", Value: e.Size}
	}

	rank := 0
	if e.Rank != "" {
		rank, err = strconv.Atoi(e.Rank)
		if err != nil {
			return Config{}, &MalformedEnvError{Source: e.Source, Variable: "rank", Value: e.Rank}
		}
	}

	cfg := base
	cfg.Size = size
	cfg.Rank = rank
	if cfg.Addr == "" {
		cfg.Addr = e.Addr
	}

	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// MalformedEnvError reports a launcher variable that is present but unusable.
type MalformedEnvError struct {
	Source   string
	Variable string
	Value    string
}

func (e *MalformedEnvError) Error() string {
	return "malformed " + e.Source + " environment: " + e.Variable + " = " + strconv.Quote(e.Value)
}
