// Command crossref analyzes account timelines: one account at a time or a whole
// directory in a batch run.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
