// Package cmd provides the command-line interface of csim.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "csim",
	Short: "csim simulates a set-associative LRU cache on a memory trace.",
	Long: `csim replays a valgrind lackey memory trace against a ` +
		`set-associative cache with 2^s sets, E lines per set and 2^b-byte ` +
		`blocks, and reports the number of hits, misses and evictions.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
