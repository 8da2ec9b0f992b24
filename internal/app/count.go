package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of installed packages",
	Args:  cobra.NoArgs,
	RunE:  runCount,
}

func init() {
	RootCmd.AddCommand(countCmd)
}

func runCount(cmd *cobra.Command, args []string) error {
	cat, _, err := openCatalogAndLayout()
	if err != nil {
		return err
	}
	defer cat.Close()

	pkgs, err := cat.ListPackages(cat.DB())
	if err != nil {
		return err
	}
	fmt.Println(len(pkgs))
	return nil
}
