package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cv2labs/anemo/internal/output"
)

var installBinCmd = &cobra.Command{
	Use:   "install-bin <archive>...",
	Short: "Install one or more local apkg archives directly",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runInstallBin,
}

func init() {
	RootCmd.AddCommand(installBinCmd)
}

func runInstallBin(cmd *cobra.Command, args []string) error {
	if err := requireRoot(); err != nil {
		return err
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
	for _, archivePath := range args {
		if _, err := tx.InstallArchive(archivePath, nil); err != nil {
			output.Error("failed to install %q: %v", archivePath, err)
			failed = true
		}
	}
	if failed {
		return fmt.Errorf("one or more archives failed to install")
	}
	return nil
}
