// Command jobpulse is the entry point for the jobpulse job-aggregation
// service. It provides a CLI interface (via Cobra) with two long-running
// modes: `monitor` ingests channel messages into structured postings,
// and `serve` exposes the HTTP query API over the stored data.
package main

import (
	"fmt"
	"os"

	"github.com/jobpulse/jobpulse-go/cmd/jobpulse/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
