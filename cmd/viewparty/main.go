package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"
)

const (
	configKey  = "config"
	modelKey   = "model"
	verboseKey = "verbose"
	widthKey   = "width"
	heightKey  = "height"
	itersKey   = "iterations"
)

func main() {
	cmd := &cli.Command{
		Name:  "viewparty",
		Usage: "Headless tooling for the viewparty runtime",
		Commands: []*cli.Command{
			routeCommand(),
			evalCommand(),
			benchCommand(),
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// logger returns the runtime logger the verbose flag asks for, nil for
// none.
func logger(cmd *cli.Command) *log.Logger {
	if !cmd.Bool(verboseKey) {
		return nil
	}
	return log.New(os.Stderr, "", log.Lmicroseconds)
}
