package main

import (
	"os"

	"github.com/ryanlerler/fixflow/cmd/fixflow/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
