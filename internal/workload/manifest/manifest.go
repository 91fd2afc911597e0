// Package manifest loads a run's target list from a YAML manifest. Targets
// are named either by packed ID or by their plate/MJD/fiber triple.
package manifest

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/ebosslab/rrboss/internal/targets"
	rrerrors "github.com/ebosslab/rrboss/pkg/errors"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// Document is the manifest file model.
type Document struct {
	Name    string  `yaml:"name"`
	Targets []Entry `yaml:"targets"`
}

// Entry names one target. Exactly one of ID or the plate/MJD/fiber triple
// must be given.
type Entry struct {
	ID        int64  `yaml:"id,omitempty"`
	Plate     int    `yaml:"plate,omitempty"`
	MJD       int    `yaml:"mjd,omitempty"`
	Fiber     int    `yaml:"fiber,omitempty"`
	Brickname string `yaml:"brickname,omitempty"`
}

// Source reads targets from the manifest at Path.
type Source struct {
	Path string
}

// Load parses the manifest and returns its targets in file order.
func (s Source) Load(ctx context.Context) ([]targets.Target, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := Parse(s.Path)
	if err != nil {
		return nil, err
	}

	ts := make([]targets.Target, 0, len(doc.Targets))
	for i, entry := range doc.Targets {
		id, err := entry.targetID()
		if err != nil {
			return nil, rrerrors.NewValidationError(
				fmt.Sprintf("targets[%d]", i), err.Error(), err)
		}
		ts = append(ts, targets.Target{
			ID:        id,
			Brickname: entry.Brickname,
			Meta:      map[string]string{"manifest": doc.Name},
		})
	}
	return ts, nil
}

// Parse loads and decodes a manifest file.
func Parse(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, rrerrors.NewParseError(path, 0, err)
	}

	var doc Document
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, rrerrors.NewParseError(path, extractLine(err), err)
	}

	if len(doc.Targets) == 0 {
		return nil, rrerrors.NewValidationError("targets", "manifest names no targets", nil)
	}
	return &doc, nil
}

func (e Entry) targetID() (targets.TargetID, error) {
	hasTriple := e.Plate != 0 || e.MJD != 0 || e.Fiber != 0

	switch {
	case e.ID != 0 && hasTriple:
		return 0, fmt.Errorf("target names both an id and a plate/mjd/fiber triple")
	case e.ID != 0:
		return targets.TargetID(e.ID), nil
	case hasTriple:
		if e.Plate <= 0 || e.MJD <= 0 || e.Fiber <= 0 {
			return 0, fmt.Errorf("incomplete plate/mjd/fiber triple (%d, %d, %d)", e.Plate, e.MJD, e.Fiber)
		}
		return targets.NewTargetID(e.Plate, e.MJD, e.Fiber), nil
	default:
		return 0, fmt.Errorf("target names neither an id nor a plate/mjd/fiber triple")
	}
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	if _, scanErr := fmt.Sscanf(matches[1], "%d", &line); scanErr != nil {
		return 0
	}
	return line
}
