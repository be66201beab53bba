package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/xkcd-index/internal/indexer/tokenizer"
)

var termsCmd = &cobra.Command{
	Use:   "terms <text>...",
	Short: "Print the normalized terms the indexer would store for some text",
	Long: `Print the normalized terms the indexer would store for some text,
one "term<TAB>frequency" line per term in term order. Arguments are joined
with a space. Tokens that normalize to nothing are listed on stderr.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTerms,
}

func init() {
	rootCmd.AddCommand(termsCmd)
}

func runTerms(cmd *cobra.Command, args []string) error {
	analysis := tokenizer.Analyze(strings.Join(args, " "))
	for _, p := range analysis.Terms.Postings(0) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", p.Term, p.Frequency)
	}
	for _, raw := range analysis.Discarded {
		fmt.Fprintf(cmd.ErrOrStderr(), "discarded token %q\n", raw)
	}
	return nil
}
