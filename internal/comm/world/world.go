// Package world bootstraps a distributed communicator from the launcher
// environment. Rank 0 hosts a rendezvous hub; every other rank dials it and
// announces itself. Collectives are hub-coordinated JSON frames over
// websockets.
package world

import (
	"context"

	"github.com/ebosslab/rrboss/internal/comm"
)

// Join constructs the world described by cfg. A world of one never touches
// the network. Join returns once every rank is present, or fails hard on
// timeout, rank collision, or size mismatch.
func Join(ctx context.Context, cfg Config) (comm.Communicator, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.Size == 1 {
		return comm.Self(), nil
	}
	if cfg.Rank == 0 {
		return hostWorld(ctx, cfg)
	}
	return joinWorld(ctx, cfg)
}

// Load detects the launcher environment and joins the world it describes.
// When no launcher environment is present it returns comm.ErrUnavailable,
// the one failure class callers may treat as "run locally instead". A
// present but unusable environment is a hard error.
func Load(ctx context.Context, base Config) (comm.Communicator, error) {
	env, ok := Detect()
	if !ok {
		return nil, comm.ErrUnavailable
	}

	cfg, err := env.Config(base)
	if err != nil {
		return nil, err
	}
	return Join(ctx, cfg)
}
