package cmd

import "github.com/spf13/cobra"

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Write term postings for every stored comic that has none",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer a.close()
		a.updateIndex(cmd.Context())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
