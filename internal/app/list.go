package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cv2labs/anemo/internal/output"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed packages",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	RootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cat, _, err := openCatalogAndLayout()
	if err != nil {
		return err
	}
	defer cat.Close()

	pkgs, err := cat.ListPackages(cat.DB())
	if err != nil {
		return err
	}

	if flagParse {
		fmt.Print(output.RenderPackageTableParsed(pkgs))
		return nil
	}
	fmt.Print(output.RenderPackageTable(pkgs))
	return nil
}
