package main

import (
	"os"

	"github.com/minjaelee/vigil/cmd/vigil/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
