package main

import (
	"os"

	"github.com/imkarma/rcvlf/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
