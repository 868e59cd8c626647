// Package main is the entry point for queuectl, the command-line tool
// for interacting with a running queued daemon's admin API.
package main

import (
	"os"

	"jobqueue/cmd/queuectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
