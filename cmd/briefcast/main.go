package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"briefcast/internal/pipeline"
)

// Exit codes: 0 success, 2 when another batch run holds the run lock, 1 for
// everything else. Cron wrappers treat 2 as benign contention.
func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		if errors.Is(err, pipeline.ErrRunInProgress) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
