package launch

import (
	"os"
	"regexp"
)

// Hostname lookup hook; swapped in tests.
var hostname = os.Hostname

// Policy describes how to recognise a restricted front-end node: a host the
// operator may not launch multi-node work from. Marker sets and patterns
// come from launcher configuration, with defaults mirroring managed-cluster
// conventions.
type Policy struct {
	// FrontendMarkers are environment variables whose presence marks a
	// cluster front-end (e.g. NERSC_HOST on a NERSC login node).
	FrontendMarkers []string

	// JobMarkers are environment variables whose presence proves the
	// process runs inside a job allocation, which always outranks the
	// front-end markers.
	JobMarkers []string

	// LoginPatterns match hostnames of login nodes.
	LoginPatterns []*regexp.Regexp
}

// DefaultPolicy returns the marker conventions of managed Slurm clusters.
func DefaultPolicy() Policy {
	return Policy{
		FrontendMarkers: []string{"NERSC_HOST"},
		JobMarkers:      []string{"SLURM_JOB_NAME"},
		LoginPatterns:   []*regexp.Regexp{regexp.MustCompile(`^login\d`)},
	}
}

// RestrictedNode reports whether this process runs on a node where
// distributed launch is disallowed. It is total: it never errors and never
// panics. A failed hostname lookup counts as no match, so the distributed
// path is preferred unless restriction is affirmatively detected.
func RestrictedNode(p Policy) bool {
	restricted, _ := Restriction(p)
	return restricted
}

// Restriction is RestrictedNode with the evidence attached: the marker
// variable or hostname pattern that decided the outcome, empty when nothing
// matched.
func Restriction(p Policy) (bool, string) {
	for _, marker := range p.JobMarkers {
		if _, ok := os.LookupEnv(marker); ok {
			return false, marker
		}
	}

	for _, marker := range p.FrontendMarkers {
		if _, ok := os.LookupEnv(marker); ok {
			return true, marker
		}
	}

	host, err := hostname()
	if err != nil {
		return false, ""
	}
	for _, pattern := range p.LoginPatterns {
		if pattern != nil && pattern.MatchString(host) {
			return true, pattern.String()
		}
	}
	return false, ""
}
