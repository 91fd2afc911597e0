package main

import (
	"fmt"

	"github.com/ebosslab/rrboss/internal/workload"
	"github.com/ebosslab/rrboss/internal/workload/manifest"
	"github.com/ebosslab/rrboss/internal/workload/synthetic"
)

const defaultSyntheticCount = 64

// RegisterWorkloads installs the built-in workload providers. Real spectra
// sources and fitters register here as they are added.
func RegisterWorkloads() error {
	if err := workload.RegisterSource("synthetic", func(cfg workload.SourceConfig) (workload.Source, error) {
		count := cfg.Count
		if count <= 0 {
			count = defaultSyntheticCount
		}
		return synthetic.Source{Count: count, Seed: cfg.Seed}, nil
	}); err != nil {
		return err
	}

	if err := workload.RegisterSource("manifest", func(cfg workload.SourceConfig) (workload.Source, error) {
		if cfg.Manifest == "" {
			return nil, fmt.Errorf("the manifest source requires --manifest")
		}
		return manifest.Source{Path: cfg.Manifest}, nil
	}); err != nil {
		return err
	}

	return workload.RegisterFitter("synthetic", func() (workload.Fitter, error) {
		return synthetic.Fitter{}, nil
	})
}
