package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dbmirror",
	Short: "Point-in-time reconciliation of one MySQL database into another",
	Long: `dbmirror mirrors every base table of a source MySQL database into a
destination database: missing tables are created, and each row is
inserted, updated, or left alone depending on whether its counterpart
already matches. Source wins; nothing flows back.`,
}

// Execute runs the CLI. A non-zero exit is reserved for runs that never
// got started (bad invocation, fatal connection failure); per-table sync
// failures are reported in the summary with exit code 0.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
