package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/deixis/boundsgate/internal/config"
	"github.com/deixis/boundsgate/internal/report"
)

// defaultSQLiteFile is the database used when store.kind is sqlite and no
// path is configured. It lives next to the .boundsgate file.
const defaultSQLiteFile = ".boundsgate.db"

// openStore opens the configured report store. Disk results outlive the
// process so that inspect can read runs from earlier invocations.
func openStore(cfg *config.Config, root string) (report.Store, func() error, error) {
	path := cfg.Store.Path
	if path != "" && !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}

	switch cfg.Store.Kind {
	case "sqlite":
		if path == "" {
			path = filepath.Join(root, defaultSQLiteFile)
		}
		s, err := report.OpenSQLite(path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening run store: %w", err)
		}
		return s, s.Close, nil
	default:
		if path == "" {
			path = filepath.Join(os.TempDir(), "boundsgate-runs")
		}
		return report.NewLRUStore(5, report.NewDiskStore(path)), func() error { return nil }, nil
	}
}

// resolve makes a relative path absolute against root.
func resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
