package main

import (
	"context"
	"fmt"

	"text2phenotype.com/hmmpos/pos"
	"text2phenotype.com/hmmpos/utils"

	"github.com/urfave/cli/v3"
)

func trainCmd() *cli.Command {
	var (
		source  modelSource
		outPath string
	)
	return &cli.Command{
		Name:  "train",
		Usage: "Train a model from aligned sentence and tag files and save it",
		Flags: append(source.flags()[1:],
			&cli.StringFlag{
				Name:        "out",
				Usage:       "where to write the model snapshot",
				Required:    true,
				Destination: &outPath,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			model, err := source.load()
			if err != nil {
				return err
			}
			if err := pos.SaveModelToFile(outPath, model); err != nil {
				return err
			}
			fingerprint, err := model.Fingerprint()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.Root().Writer, "tags: %d\nweights: bigram=%.4f trigram=%.4f\nfingerprint: %s\n",
				len(model.Tags()), model.Weights.Bigram, model.Weights.Trigram, utils.FormatHash(fingerprint))
			return err
		},
	}
}
