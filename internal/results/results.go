// Package results holds the output side of a run: redshift fits, scan
// curves, and the catalogs they are written to.
package results

import (
	"encoding/json"
	"os"

	"github.com/ebosslab/rrboss/internal/targets"
)

// ZFit is one redshift minimum for one target. ZNum orders the minima by
// fit quality; the znum 0 row is the best fit and the one promoted to the
// zbest catalog.
type ZFit struct {
	TargetID        targets.TargetID `json:"targetid"`
	ZNum            int              `json:"znum"`
	Z               float64          `json:"z"`
	ZErr            float64          `json:"zerr"`
	ZWarn           int              `json:"zwarn"`
	Chi2            float64          `json:"chi2"`
	SpecType        string           `json:"spectype"`
	TemplateVersion string           `json:"template_version"`
}

// ZScanPoint is one sample of a target's chi-squared curve.
type ZScanPoint struct {
	Z    float64 `json:"z"`
	Chi2 float64 `json:"chi2"`
}

// ZScan is the full scan curve for one target and spectype.
type ZScan struct {
	TargetID targets.TargetID `json:"targetid"`
	SpecType string           `json:"spectype"`
	Points   []ZScanPoint     `json:"points"`
}

// Best returns the znum 0 rows of fits.
func Best(fits []ZFit) []ZFit {
	best := make([]ZFit, 0, len(fits))
	for _, f := range fits {
		if f.ZNum == 0 {
			best = append(best, f)
		}
	}
	return best
}

type zscanDump struct {
	Scans []ZScan `json:"scans"`
	ZFit  []ZFit  `json:"zfit"`
}

// WriteZScan dumps the full scan data and all fit minima as JSON,
// overwriting any existing file.
func WriteZScan(path string, scans []ZScan, fits []ZFit) error {
	dump := zscanDump{Scans: scans, ZFit: fits}
	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadZScan loads a zscan dump written by WriteZScan.
func ReadZScan(path string) ([]ZScan, []ZFit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	var dump zscanDump
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, nil, err
	}
	return dump.Scans, dump.ZFit, nil
}
