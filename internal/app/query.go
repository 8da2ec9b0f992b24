package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cv2labs/anemo/internal/config"
	"github.com/cv2labs/anemo/internal/output"
)

var queryCmd = &cobra.Command{
	Use:   "query <pattern>",
	Short: "Case-insensitive substring search across all synced repo indexes",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	RootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	layout := config.Dir(flagBootstrap)
	idx, err := loadIndex(layout)
	if err != nil {
		return err
	}

	pattern := strings.ToLower(args[0])
	var matches []output.QueryMatch
	for _, pkg := range idx.All() {
		if strings.Contains(strings.ToLower(pkg.PkgName), pattern) {
			matches = append(matches, output.QueryMatch{RepoName: pkg.RepoName, Pkg: pkg})
		}
	}

	if flagParse {
		fmt.Print(output.RenderQueryResultsParsed(matches))
		return nil
	}
	if len(matches) == 0 {
		output.Info("no packages matching %q found in any repo", args[0])
		return nil
	}
	fmt.Print(output.RenderQueryResults(matches))
	return nil
}
