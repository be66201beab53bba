package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show how many comics, postings and terms the store holds",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().Bool("json", false, "output as JSON")
}

func runStats(cmd *cobra.Command, _ []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	st, err := a.store.Stats(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]int{
			"comics":         st.Comics,
			"indexed_comics": st.IndexedComics,
			"unindexed":      st.Comics - st.IndexedComics,
			"postings":       st.Postings,
			"terms":          st.Terms,
		})
	}
	fmt.Fprintf(out, "comics:          %d\n", st.Comics)
	fmt.Fprintf(out, "indexed comics:  %d\n", st.IndexedComics)
	fmt.Fprintf(out, "unindexed:       %d\n", st.Comics-st.IndexedComics)
	fmt.Fprintf(out, "postings:        %d\n", st.Postings)
	fmt.Fprintf(out, "distinct terms:  %d\n", st.Terms)
	return nil
}
