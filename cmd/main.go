package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

const (
	flagCfg    = "cfg"
	flagChain  = "chain"
	flagTx     = "tx"
	flagTrader = "trader"
)

const (
	// App name
	appName = "swap-watcher"
)

func main() {
	app := cli.NewApp()
	app.Name = appName
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:     flagCfg,
			Aliases:  []string{"c"},
			Usage:    "Configuration `FILE`",
			Required: false,
		},
	}
	app.Commands = []*cli.Command{
		{
			Name:    "version",
			Aliases: []string{},
			Usage:   "Application version and build",
			Action:  versionCmd,
		},
		{
			Name:    "run",
			Aliases: []string{},
			Usage:   "Run the swap watcher",
			Action:  start,
			Flags:   flags,
		},
		{
			Name:   "register",
			Usage:  "Register the burn messages of an evm transaction",
			Action: registerBurn,
			Flags: append([]cli.Flag{
				&cli.StringFlag{
					Name:     flagChain,
					Usage:    "Source chain `NAME`",
					Required: true,
				},
				&cli.StringFlag{
					Name:     flagTx,
					Usage:    "Transaction `HASH`",
					Required: true,
				},
				&cli.StringFlag{
					Name:  flagTrader,
					Usage: "Trader `ADDRESS` that sent the transaction",
				},
			}, flags...),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Printf("\nError: %v\n", err)
		os.Exit(1)
	}
}
