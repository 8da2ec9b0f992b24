package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cv2labs/anemo/internal/config"
	"github.com/cv2labs/anemo/internal/output"
)

var removeRepoCmd = &cobra.Command{
	Use:   "remove-repo <name>",
	Short: "Delete a repository descriptor and its synced data",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemoveRepo,
}

func init() {
	RootCmd.AddCommand(removeRepoCmd)
}

func runRemoveRepo(cmd *cobra.Command, args []string) error {
	if err := requireRoot(); err != nil {
		return err
	}

	name := args[0]
	layout := config.Dir(flagBootstrap)

	if info, err := os.Stat(layout.ReposDir); err != nil || !info.IsDir() {
		return fmt.Errorf("repos directory %s does not exist", layout.ReposDir)
	}

	repoFile := filepath.Join(layout.ReposDir, name+".json")
	if _, err := os.Stat(repoFile); err != nil {
		return fmt.Errorf("repository %q not found in %s", name, layout.ReposDir)
	}
	if err := os.Remove(repoFile); err != nil {
		return fmt.Errorf("failed to remove %s: %w", repoFile, err)
	}
	output.Info("removed repository descriptor %q", filepath.Base(repoFile))

	dataDir := filepath.Join(layout.ReposDir, name)
	if _, err := os.Stat(dataDir); err == nil {
		if err := os.RemoveAll(dataDir); err != nil {
			output.Warning("failed to remove data directory %q: %v", dataDir, err)
		} else {
			output.Info("removed repository data at %q", dataDir)
		}
	}

	output.Success("repository %q removed", name)
	return nil
}
