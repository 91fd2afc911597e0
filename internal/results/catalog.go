package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ebosslab/rrboss/internal/targets"
)

const catalogSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id                TEXT PRIMARY KEY,
	created_at        TIMESTAMP NOT NULL,
	tool_version      TEXT NOT NULL,
	template_versions TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS zbest (
	run_id           TEXT NOT NULL REFERENCES runs(id),
	target_id        INTEGER NOT NULL,
	z                REAL NOT NULL,
	zerr             REAL NOT NULL,
	zwarn            INTEGER NOT NULL,
	chi2             REAL NOT NULL,
	spectype         TEXT NOT NULL,
	template_version TEXT NOT NULL,
	PRIMARY KEY (run_id, target_id)
);
`

// RunRecord identifies one recorded run in a zbest catalog.
type RunRecord struct {
	ID               string
	CreatedAt        time.Time
	ToolVersion      string
	TemplateVersions map[string]string
}

// Catalog is a SQLite zbest catalog. Only rank 0 ever writes one.
type Catalog struct {
	db *sql.DB
}

// OpenCatalog opens (creating if necessary) a zbest catalog at path.
func OpenCatalog(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	if _, err := db.Exec(catalogSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: init schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Close releases the catalog's database handle.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// WriteZBest records a run and the best (znum 0) rows of fits in one
// transaction.
func (c *Catalog) WriteZBest(ctx context.Context, run RunRecord, fits []ZFit) error {
	versions, err := json.Marshal(run.TemplateVersions)
	if err != nil {
		return fmt.Errorf("catalog: encode template versions: %w", err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("catalog: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, tool_version, template_versions) VALUES (?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UTC(), run.ToolVersion, string(versions),
	); err != nil {
		return fmt.Errorf("catalog: record run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO zbest (run_id, target_id, z, zerr, zwarn, chi2, spectype, template_version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("catalog: prepare zbest insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range Best(fits) {
		if _, err := stmt.ExecContext(ctx,
			run.ID, int64(f.TargetID), f.Z, f.ZErr, f.ZWarn, f.Chi2, f.SpecType, f.TemplateVersion,
		); err != nil {
			return fmt.Errorf("catalog: insert target %d: %w", f.TargetID, err)
		}
	}

	return tx.Commit()
}

// ListRuns returns every recorded run, newest first.
func (c *Catalog) ListRuns(ctx context.Context) ([]RunRecord, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, created_at, tool_version, template_versions FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var run RunRecord
		var versions string
		if err := rows.Scan(&run.ID, &run.CreatedAt, &run.ToolVersion, &versions); err != nil {
			return nil, fmt.Errorf("catalog: scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(versions), &run.TemplateVersions); err != nil {
			return nil, fmt.Errorf("catalog: decode template versions for run %s: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ZBest returns the recorded best fits for one run, ordered by target ID.
func (c *Catalog) ZBest(ctx context.Context, runID string) ([]ZFit, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT target_id, z, zerr, zwarn, chi2, spectype, template_version
		 FROM zbest WHERE run_id = ? ORDER BY target_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("catalog: query zbest for run %s: %w", runID, err)
	}
	defer rows.Close()

	var fits []ZFit
	for rows.Next() {
		var f ZFit
		var id int64
		if err := rows.Scan(&id, &f.Z, &f.ZErr, &f.ZWarn, &f.Chi2, &f.SpecType, &f.TemplateVersion); err != nil {
			return nil, fmt.Errorf("catalog: scan zbest row: %w", err)
		}
		f.TargetID = targets.TargetID(id)
		fits = append(fits, f)
	}
	return fits, rows.Err()
}
