package main

import (
	"os"

	swapwatcher "github.com/mayanlabs/swap-watcher"
	"github.com/urfave/cli/v2"
)

func versionCmd(*cli.Context) error {
	swapwatcher.PrintVersion(os.Stdout)
	return nil
}
