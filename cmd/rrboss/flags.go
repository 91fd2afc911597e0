package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ebosslab/rrboss/internal/targets"
)

// parseTargetIDs splits a comma-separated target ID list.
func parseTargetIDs(raw string) ([]targets.TargetID, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]targets.TargetID, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid target id %q: %w", part, err)
		}
		ids = append(ids, targets.TargetID(id))
	}
	return ids, nil
}

func validateRunOptions(opts runOptions) error {
	if strings.TrimSpace(opts.output) == "" && strings.TrimSpace(opts.zbest) == "" {
		return fmt.Errorf("--output or --zbest required")
	}
	if opts.source == "manifest" && strings.TrimSpace(opts.manifest) == "" {
		return fmt.Errorf("--manifest is required with the manifest source")
	}
	return nil
}
