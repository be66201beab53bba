// Command xkcdindex mirrors the xkcd archive into a local store and keeps a
// stemmed term index over every comic's title and transcript.
package main

import (
	"os"

	"github.com/Adithya-Monish-Kumar-K/xkcd-index/cmd/xkcdindex/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
