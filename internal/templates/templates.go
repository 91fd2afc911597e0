// Package templates resolves the template set a run fits against. The set
// itself is opaque to the launcher: only its location and per-type versions
// travel through the pipeline and into the output catalog.
package templates

import (
	"bufio"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
)

// versionFile names the per-template version marker inside each template
// subdirectory.
const versionFile = "VERSION"

// Set describes the resolved templates of a run.
type Set struct {
	// Dir is the local directory holding the template files.
	Dir string

	// Versions maps template full-type (the subdirectory name) to the
	// version recorded in its VERSION file.
	Versions map[string]string
}

// Load resolves a template reference. An empty ref yields an empty set. A
// git URL is shallow-cloned into cacheDir and reused on later runs; anything
// else is treated as a local directory.
func Load(ctx context.Context, ref, cacheDir string) (*Set, error) {
	if ref == "" {
		return &Set{Versions: map[string]string{}}, nil
	}

	dir := ref
	if isGitURL(ref) {
		cloned, err := fetch(ctx, ref, cacheDir)
		if err != nil {
			return nil, err
		}
		dir = cloned
	}

	versions, err := scanVersions(dir)
	if err != nil {
		return nil, err
	}
	return &Set{Dir: dir, Versions: versions}, nil
}

func isGitURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") ||
		strings.HasPrefix(ref, "https://") ||
		strings.HasPrefix(ref, "git@")
}

// fetch shallow-clones url into a cache subdirectory derived from the URL,
// reusing an existing clone when present.
func fetch(ctx context.Context, url, cacheDir string) (string, error) {
	sum := sha1.Sum([]byte(url))
	dest := filepath.Join(cacheDir, hex.EncodeToString(sum[:8]))

	if _, err := os.Stat(filepath.Join(dest, ".git")); err == nil {
		return dest, nil
	}

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("templates: create cache dir: %w", err)
	}

	_, err := git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{
		URL:   url,
		Depth: 1,
	})
	if err != nil {
		return "", fmt.Errorf("templates: clone %s: %w", url, err)
	}
	return dest, nil
}

// scanVersions reads each subdirectory's VERSION file. Subdirectories
// without one are recorded with version "unknown".
func scanVersions(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("templates: read %s: %w", dir, err)
	}

	versions := make(map[string]string)
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		versions[entry.Name()] = readVersion(filepath.Join(dir, entry.Name(), versionFile))
	}
	return versions, nil
}

func readVersion(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return "unknown"
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if scanner.Scan() {
		if v := strings.TrimSpace(scanner.Text()); v != "" {
			return v
		}
	}
	return "unknown"
}
