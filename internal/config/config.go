// Package config loads the optional launcher configuration file. Everything
// has a default: a missing file yields a usable configuration.
package config

import (
	"fmt"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ebosslab/rrboss/internal/comm/world"
	"github.com/ebosslab/rrboss/internal/launch"
)

// Duration is a time.Duration that decodes from YAML strings like "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config is the launcher configuration document.
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	World    WorldConfig    `yaml:"world"`
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// SiteConfig feeds the node-restriction probe.
type SiteConfig struct {
	FrontendMarkers []string `yaml:"frontend_markers"`
	JobMarkers      []string `yaml:"job_markers"`
	LoginPatterns   []string `yaml:"login_patterns" validate:"dive,regexp"`
}

// WorldConfig feeds world bootstrap.
type WorldConfig struct {
	Addr        string   `yaml:"addr" validate:"omitempty,hostname_port"`
	DialTimeout Duration `yaml:"dial_timeout" validate:"min=0"`
	JoinTimeout Duration `yaml:"join_timeout" validate:"min=0"`
}

// PipelineConfig supplies pipeline defaults.
type PipelineConfig struct {
	Workers int `yaml:"workers" validate:"min=0"`
	NMinima int `yaml:"nminima" validate:"min=1"`
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	policy := launch.DefaultPolicy()

	patterns := make([]string, 0, len(policy.LoginPatterns))
	for _, p := range policy.LoginPatterns {
		patterns = append(patterns, p.String())
	}

	return &Config{
		Site: SiteConfig{
			FrontendMarkers: policy.FrontendMarkers,
			JobMarkers:      policy.JobMarkers,
			LoginPatterns:   patterns,
		},
		World: WorldConfig{
			DialTimeout: Duration(world.DefaultDialTimeout),
			JoinTimeout: Duration(world.DefaultJoinTimeout),
		},
		Pipeline: PipelineConfig{NMinima: 3},
	}
}

// Policy compiles the site section into a restriction-probe policy. The
// patterns were validated at load time; compile failures cannot occur here.
func (s SiteConfig) Policy() launch.Policy {
	patterns := make([]*regexp.Regexp, 0, len(s.LoginPatterns))
	for _, p := range s.LoginPatterns {
		if compiled, err := regexp.Compile(p); err == nil {
			patterns = append(patterns, compiled)
		}
	}
	return launch.Policy{
		FrontendMarkers: s.FrontendMarkers,
		JobMarkers:      s.JobMarkers,
		LoginPatterns:   patterns,
	}
}

// WorldConfig converts the world section into a bootstrap config. Size and
// rank come from the launcher environment, not from the file.
func (w WorldConfig) WorldConfig() world.Config {
	return world.Config{
		Addr:        w.Addr,
		DialTimeout: time.Duration(w.DialTimeout),
		JoinTimeout: time.Duration(w.JoinTimeout),
	}
}
