// Package main provides the CLI entry point for testpilot.
package main

import (
	"os"

	"github.com/flashingpumpkin/testpilot/internal/output"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		output.NewFormatter(false, os.Stderr).PrintError(err)
		os.Exit(1)
	}
}
