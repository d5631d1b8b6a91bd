package main

import (
	"os"

	"github.com/rustyeddy/exitsweep/cmd/exitsweep/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
