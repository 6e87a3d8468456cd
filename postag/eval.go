package main

import (
	"context"
	"fmt"
	"os"

	"text2phenotype.com/hmmpos/corpus"

	"github.com/urfave/cli/v3"
)

func evalCmd() *cli.Command {
	var resultPath, goldPath string
	return &cli.Command{
		Name:  "eval",
		Usage: "Score a tag file against gold tags",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "result",
				Usage:       "tags produced by the tagger",
				Required:    true,
				Destination: &resultPath,
			},
			&cli.StringFlag{
				Name:        "gold",
				Usage:       "reference tags",
				Required:    true,
				Destination: &goldPath,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			result, err := readTagFile(resultPath)
			if err != nil {
				return err
			}
			gold, err := readTagFile(goldPath)
			if err != nil {
				return err
			}
			score := corpus.Accuracy(result, gold)
			_, err = fmt.Fprintf(cmd.Root().Writer, "correct: %d\ntotal: %d\naccuracy: %.4f\n",
				score.Correct, score.Total, score.Ratio())
			return err
		},
	}
}

func readTagFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return corpus.ReadSentences(f)
}
