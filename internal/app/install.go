package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"

	"github.com/cv2labs/anemo/internal/fetch"
	"github.com/cv2labs/anemo/internal/index"
	"github.com/cv2labs/anemo/internal/output"
	"github.com/cv2labs/anemo/internal/resolver"
)

var installCmd = &cobra.Command{
	Use:   "install <requirement>...",
	Short: "Resolve requirements against configured repos, download, and install in order",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runInstall,
}

func init() {
	RootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	if err := requireRoot(); err != nil {
		return err
	}

	cat, layout, err := openCatalogAndLayout()
	if err != nil {
		return err
	}
	defer cat.Close()

	idx, err := loadIndex(layout)
	if err != nil {
		return err
	}

	plan, err := resolver.Resolve(cat, idx, args)
	if err != nil {
		return fmt.Errorf("failed to resolve %v: %w", args, err)
	}
	for _, diag := range plan.Diagnostics {
		output.Warning("%s", diag)
	}
	if len(plan.Packages) == 0 {
		output.Info("all requested packages are already installed")
		return nil
	}

	settings, err := loadSettings(layout)
	if err != nil {
		return err
	}

	tmpDir := filepath.Join(os.TempDir(), "anemo-fetch")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return fmt.Errorf("failed to create fetch temp dir %s: %w", tmpDir, err)
	}

	paths, err := downloadPlan(plan.Packages, tmpDir, settings.FetchConcurrency)
	if err != nil {
		return err
	}

	tx, err := newTransactor(cat, layout)
	if err != nil {
		return err
	}

	staged := make(map[string]bool, len(plan.Packages))
	for _, pkg := range plan.Packages {
		staged[pkg.PkgName] = true
	}

	progress := output.NewProgress(len(plan.Packages), "Installing")
	for _, pkg := range plan.Packages {
		output.Info("installing %s-%s", pkg.PkgName, pkg.PkgVer)
		if _, err := tx.InstallArchive(paths[pkg.Filename], staged); err != nil {
			return fmt.Errorf("failed to install %s: %w", pkg.PkgName, err)
		}
		progress.Increment()
	}
	progress.Finish()

	output.Success("all packages installed")
	return nil
}

// downloadPlan fetches every plan entry's archive into destDir, bounded to
// min(concurrency, 8) simultaneous downloads per §9's design note on the
// source's unbounded fetch pool. A single failure aborts the whole batch
// without touching the catalog, per §5.
func downloadPlan(pkgs []index.RepoPackage, destDir string, concurrency int) (map[string]string, error) {
	if concurrency <= 0 || concurrency > 8 {
		concurrency = 8
	}

	fetcher := fetch.New()
	ctx := context.Background()
	sem := make(chan struct{}, concurrency)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		paths    = make(map[string]string, len(pkgs))
	)

	for _, pkg := range pkgs {
		pkg := pkg
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			url := pkg.RepoURL + "/" + pkg.Filename
			dest := filepath.Join(destDir, pkg.Filename)
			if err := fetcher.FetchToFile(ctx, url, dest); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("failed to download %s: %w", pkg.PkgName, err)
				}
				mu.Unlock()
				return
			}
			mu.Lock()
			paths[pkg.Filename] = dest
			mu.Unlock()
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return paths, nil
}
