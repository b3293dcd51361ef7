// Package main is the entry point for the gradfetch CLI.
package main

import (
	"os"

	"github.com/jmylchreest/gradfetch/cmd/gradfetch/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
