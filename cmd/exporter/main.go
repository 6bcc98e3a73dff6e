package main

import (
	"os"

	"github.com/tietracker/tiexport/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
