package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/cv2labs/anemo/internal/config"
	"github.com/cv2labs/anemo/internal/fetch"
	"github.com/cv2labs/anemo/internal/output"
)

var syncRepoFlagWatch bool

var syncRepoCmd = &cobra.Command{
	Use:   "sync-repo",
	Short: "Fetch each configured repo's index to the local cache",
	Args:  cobra.NoArgs,
	RunE:  runSyncRepo,
}

func init() {
	syncRepoCmd.Flags().BoolVar(&syncRepoFlagWatch, "watch", false, "after the initial sync, watch repo descriptors and re-sync on change")
	RootCmd.AddCommand(syncRepoCmd)
}

type repoDescriptor struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func runSyncRepo(cmd *cobra.Command, args []string) error {
	if err := requireRoot(); err != nil {
		return err
	}

	layout := config.Dir(flagBootstrap)
	if info, err := os.Stat(layout.ReposDir); err != nil || !info.IsDir() {
		return fmt.Errorf("repos directory %s does not exist", layout.ReposDir)
	}

	fetcher := fetch.New()
	if err := syncAllRepos(fetcher, layout.ReposDir); err != nil {
		return err
	}

	if !syncRepoFlagWatch {
		return nil
	}
	return watchRepos(fetcher, layout.ReposDir)
}

// syncAllRepos iterates every <repoDir>/<name>.json descriptor and fetches
// its <url>/repo.json into <repoDir>/<name>/repo.json, per §6.1.
func syncAllRepos(fetcher *fetch.Fetcher, reposDir string) error {
	entries, err := os.ReadDir(reposDir)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", reposDir, err)
	}

	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		if err := syncOneRepo(fetcher, reposDir, filepath.Join(reposDir, e.Name())); err != nil {
			output.Error("%v", err)
		}
	}
	output.Success("sync complete")
	return nil
}

func syncOneRepo(fetcher *fetch.Fetcher, reposDir, descPath string) error {
	raw, err := os.ReadFile(descPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", descPath, err)
	}
	var desc repoDescriptor
	if err := json.Unmarshal(raw, &desc); err != nil {
		return fmt.Errorf("failed to parse %s: %w", descPath, err)
	}

	localDir := filepath.Join(reposDir, desc.Name)
	if err := os.MkdirAll(localDir, 0o755); err != nil {
		return fmt.Errorf("cannot create directory %s: %w", localDir, err)
	}

	indexPath := filepath.Join(localDir, "repo.json")
	remoteURL := strings.TrimSuffix(desc.URL, "/") + "/repo.json"

	output.Info("%s: fetching %s", desc.Name, remoteURL)
	if err := fetcher.FetchToFile(context.Background(), remoteURL, indexPath); err != nil {
		return fmt.Errorf("%s: failed to sync: %w", desc.Name, err)
	}
	return nil
}

// watchRepos runs the §12.3 supplement: a foreground fsnotify loop that
// re-syncs a repo whenever its descriptor file changes, until interrupted.
func watchRepos(fetcher *fetch.Fetcher, reposDir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(reposDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", reposDir, err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	output.Info("watching %s for repo descriptor changes", reposDir)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(event.Name) != ".json" {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := syncOneRepo(fetcher, reposDir, event.Name); err != nil {
				output.Error("%v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			output.Error("watcher: %v", err)
		case <-sigCh:
			return nil
		}
	}
}
