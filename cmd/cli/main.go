package main

import (
	"os"

	"github.com/wanderlust-dev/wanderlust/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
