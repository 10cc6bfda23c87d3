package main

import (
	"os"

	"github.com/qwerty1432/Memory-Research/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
