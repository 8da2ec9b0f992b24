package app

import (
	"github.com/spf13/cobra"

	"github.com/cv2labs/anemo/internal/output"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Re-check broken packages and clear markers whose dependencies are now satisfied",
	Args:  cobra.NoArgs,
	RunE:  runAudit,
}

func init() {
	RootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
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

	results, err := tx.Audit()
	if err != nil {
		return err
	}
	if len(results) == 0 {
		output.Info("no broken packages found")
		return nil
	}

	for _, r := range results {
		if r.Fixed {
			output.Info("%s is now fixed", r.Name)
			continue
		}
		output.Warning("%s is still broken; missing: %v", r.Name, r.StillMissing)
	}
	return nil
}
