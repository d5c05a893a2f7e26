// Package main provides the entry point for the gatehouse CLI.
package main

import (
	"fmt"
	"os"

	"github.com/gatehouse-ai/gatehouse/cmd/gatehouse/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
