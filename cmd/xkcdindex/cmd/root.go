// Package cmd contains the xkcdindex CLI commands.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "xkcdindex",
	Short: "Synchronize the xkcd archive and update its term index",
	Long: `xkcdindex fetches every comic missing from the local store, then writes
term postings for every comic that has none.

A run that cannot reach the archive still completes; the next run resumes
where this one stopped. Only startup failures (configuration, storage,
schema, run lock) produce a non-zero exit status.

Example usage:
  xkcdindex                          # sync then index
  xkcdindex --config xkcd.yaml sync  # sync only
  xkcdindex index                    # index only
  xkcdindex stats                    # show store counts
  xkcdindex terms "Running cats"     # show normalized terms`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE:          runAll,
}

// Execute runs the root command until it finishes or the process receives
// SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to YAML config file (defaults plus XI_* environment when empty)")
}

func runAll(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	a.synchronize(cmd.Context())
	a.updateIndex(cmd.Context())
	return nil
}
