package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cv2labs/anemo/internal/config"
	"github.com/cv2labs/anemo/internal/output"
)

var addRepoCmd = &cobra.Command{
	Use:   "add-repo <name> <url> [priority]",
	Short: "Register a new repository descriptor",
	Args:  cobra.RangeArgs(2, 3),
	RunE:  runAddRepo,
}

func init() {
	RootCmd.AddCommand(addRepoCmd)
}

func runAddRepo(cmd *cobra.Command, args []string) error {
	if err := requireRoot(); err != nil {
		return err
	}

	name, url := args[0], args[1]
	priority := 50
	if len(args) == 3 {
		p, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid priority %q", args[2])
		}
		priority = p
	}

	layout := config.Dir(flagBootstrap)
	if err := os.MkdirAll(layout.ReposDir, 0o755); err != nil {
		return fmt.Errorf("unable to create directory %s: %w", layout.ReposDir, err)
	}

	repoFile := filepath.Join(layout.ReposDir, name+".json")
	if _, err := os.Stat(repoFile); err == nil {
		return fmt.Errorf("repository %q already exists", name)
	}

	descriptor := fmt.Sprintf("{\n  \"name\":     %q,\n  \"url\":      %q,\n  \"priority\": %d\n}\n", name, url, priority)
	if err := os.WriteFile(repoFile, []byte(descriptor), 0o644); err != nil {
		return fmt.Errorf("cannot write %s: %w", repoFile, err)
	}

	output.Info("repository %q added with priority %d", name, priority)
	return nil
}
