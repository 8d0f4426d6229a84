// Package main provides the sqltrace CLI.
package main

import (
	"os"

	"github.com/traceforge/sqltrace/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
