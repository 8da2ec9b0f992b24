// Package app wires cobra commands onto the transactor, resolver, index,
// and catalog packages, one file per command, mirroring the teacher's
// internal/app layout (one command per file, shared helpers in common.go).
package app

import (
	"github.com/spf13/cobra"
)

var (
	flagForce     bool
	flagBootstrap string
	flagParse     bool
)

// RootCmd is the root command for anemo.
var RootCmd = &cobra.Command{
	Use:   "anemo",
	Short: "A source-independent binary package manager",
	Long: `anemo installs, removes, and audits binary packages (apkg archives)
against a transactional SQLite catalog, resolving dependencies across one
or more priority-ordered repositories.

Examples:
  # Install a local archive directly
  anemo install-bin libfoo-1.2.3.apkg

  # Resolve and install from configured repos
  anemo install "libfoo>=1.2"

  # Remove a package, marking dependents broken if forced
  anemo remove libfoo -f

  # Re-check broken packages after installing a missing dependency
  anemo audit

  # List installed packages
  anemo list`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	RootCmd.PersistentFlags().BoolVarP(&flagForce, "force", "f", false, "downgrade certain fatal errors to warnings")
	RootCmd.PersistentFlags().StringVarP(&flagBootstrap, "bootstrap", "b", "", "alternate root directory for catalog and filesystem mutations")
	RootCmd.PersistentFlags().BoolVarP(&flagParse, "parse", "p", false, "emit pipe-delimited machine output instead of prose")

	RootCmd.SuggestionsMinimumDistance = 2
}

// Execute runs the root command.
func Execute() error {
	return RootCmd.Execute()
}
