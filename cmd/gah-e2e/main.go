package main

import (
	"os"

	"github.com/gahjs/e2e-plugin/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
