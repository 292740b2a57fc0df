package main

import (
	"os"

	"github.com/victorvelazquez/dev-orchestrator/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
