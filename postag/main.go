package main

import (
	"context"
	"fmt"
	"os"

	"text2phenotype.com/hmmpos/logger"

	"github.com/urfave/cli/v3"
)

func main() {
	logger.SetupLogging()
	app := &cli.Command{
		Name:  "postag",
		Usage: "Train, run and score HMM part-of-speech taggers",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			trainCmd(),
			tagCmd(),
			evalCmd(),
			consoleCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
