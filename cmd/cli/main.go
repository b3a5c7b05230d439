package main

import (
	"os"

	"github.com/healthmap/healthmap/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
