package cmd

import "github.com/spf13/cobra"

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch comics missing from the local store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer a.close()
		a.synchronize(cmd.Context())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
