// Package main is the entry point of the buster CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/buster/internal/apperr"
	"github.com/leapstack-labs/buster/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(apperr.ExitCode(err))
	}
}
