package main

import (
	"os"

	"github.com/eighteen73/custom-tables/internal/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
