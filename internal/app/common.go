package app

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/cv2labs/anemo/internal/catalog"
	"github.com/cv2labs/anemo/internal/config"
	"github.com/cv2labs/anemo/internal/index"
	"github.com/cv2labs/anemo/internal/logging"
	"github.com/cv2labs/anemo/internal/transactor"
)

// requireRoot enforces §6.1's "root privilege is required for any
// mutating command" rule. Skipped entirely when --bootstrap points
// somewhere other than the real filesystem root, since nothing outside
// that directory is touched.
func requireRoot() error {
	if flagBootstrap != "" && filepath.Clean(flagBootstrap) != "/" {
		return nil
	}
	if unix.Geteuid() != 0 {
		return fmt.Errorf("this command must be run as root")
	}
	return nil
}

// openCatalogAndLayout resolves the persisted layout under --bootstrap and
// opens (creating if absent) its catalog database.
func openCatalogAndLayout() (*catalog.Catalog, config.Layout, error) {
	layout := config.Dir(flagBootstrap)
	if err := os.MkdirAll(layout.LibDir, 0o755); err != nil {
		return nil, config.Layout{}, fmt.Errorf("failed to create %s: %w", layout.LibDir, err)
	}
	cat, err := catalog.Open(layout.DBPath)
	if err != nil {
		return nil, config.Layout{}, err
	}
	return cat, layout, nil
}

// newTransactor builds a Transactor against an already-open catalog,
// logging to the layout's diagnostic log file only; console logging is
// never enabled here.
func newTransactor(cat *catalog.Catalog, layout config.Layout) (*transactor.Transactor, error) {
	logPath := layout.LibDir + "/anemo.log"
	log, err := logging.Init(logPath, false)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return transactor.New(cat, layout, flagForce, log), nil
}

// loadIndex aggregates every synced repo descriptor under layout.ReposDir.
func loadIndex(layout config.Layout) (*index.Index, error) {
	return index.Load(layout.ReposDir)
}

// loadSettings reads the optional anemo.conf, falling back to defaults.
func loadSettings(layout config.Layout) (config.Settings, error) {
	return config.LoadSettings(layout.ConfigPath)
}
