package main

import (
	"os"

	"github.com/hyyve/flowcanvas/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
