package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cv2labs/anemo/internal/output"
)

var removeCmd = &cobra.Command{
	Use:   "remove <name>...",
	Short: "Remove one or more installed packages",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRemove,
}

func init() {
	RootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	if err := requireRoot(); err != nil {
		return err
	}
	if flagBootstrap != "" {
		return fmt.Errorf("cannot remove packages when bootstrapping")
	}

	cat, layout, err := openCatalogAndLayout()
	if err != nil {
		return err
	}
	defer cat.Close()

	tx, err := newTransactor(cat, layout)
	if err != nil {
		return err
	}

	var failed bool
	for _, name := range args {
		if err := tx.Remove(name); err != nil {
			output.Error("failed to remove %q: %v", name, err)
			failed = true
		}
	}
	if failed {
		return fmt.Errorf("one or more packages failed to remove")
	}
	return nil
}
