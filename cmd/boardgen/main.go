// Package main provides the boardgen CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/boardgen/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
