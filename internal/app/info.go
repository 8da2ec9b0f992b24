package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cv2labs/anemo/internal/output"
)

var infoCmd = &cobra.Command{
	Use:   "info <name>...",
	Short: "Show details for one or more installed packages",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runInfo,
}

func init() {
	RootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	cat, _, err := openCatalogAndLayout()
	if err != nil {
		return err
	}
	defer cat.Close()

	var missing bool
	for _, name := range args {
		pkg, err := cat.GetPackage(cat.DB(), name)
		if err != nil {
			output.Error("package %q is not installed", name)
			missing = true
			continue
		}
		if flagParse {
			fmt.Print(output.RenderInfoParsed(pkg))
		} else {
			fmt.Print(output.RenderInfo(pkg))
		}
	}
	if missing {
		return fmt.Errorf("one or more requested packages are not installed")
	}
	return nil
}
