// Package datdir finds .dat files in a directory and loads them into a store.
package datdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/JohannaVonLuck/refdb"
	"github.com/JohannaVonLuck/refdb/datfile"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/npillmayer/schuko/tracing"
)

// DefaultPattern selects the files of a data directory.
const DefaultPattern = "*.dat"

// tracer writes to trace with key 'refdb.datdir'
func tracer() tracing.Trace {
	return tracing.Select("refdb.datdir")
}

// Scan returns the paths of all files in dir whose name matches pattern
// (DefaultPattern if empty), sorted by name. Relative directories are
// resolved against the working directory.
func Scan(dir, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("datdir: invalid pattern %q", pattern)
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("datdir: cannot resolve %q: %w", dir, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("datdir: error opening directory %q for read: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("datdir: %q is not a directory", dir)
	}
	matches, err := doublestar.Glob(os.DirFS(root), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("datdir: scanning %q: %w", dir, err)
	}
	sort.Strings(matches)
	paths := make([]string, len(matches))
	for i, m := range matches {
		paths[i] = filepath.Join(root, filepath.FromSlash(m))
	}
	return paths, nil
}

// LoadDirectory loads every matching file of dir into store, one file
// after the other. A file that fails to load is logged and skipped; the
// failures are returned joined together. loaded counts the files loaded
// without error.
func LoadDirectory(store *refdb.Store, dir, pattern string) (loaded int, err error) {
	paths, err := Scan(dir, pattern)
	if err != nil {
		tracer().Errorf("DB: %v", err)
		return 0, err
	}
	var errs []error
	for _, path := range paths {
		if lerr := datfile.LoadFile(store, path); lerr != nil {
			tracer().Errorf("DB: %v", lerr)
			errs = append(errs, lerr)
			continue
		}
		loaded++
	}
	tracer().Infof("loaded %d of %d files from %s", loaded, len(paths), dir)
	return loaded, errors.Join(errs...)
}
