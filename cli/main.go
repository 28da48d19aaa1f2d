package main

import (
	"os"

	"github.com/crownpoint-data/pos-sync/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
