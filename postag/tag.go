package main

import (
	"context"
	"os"
	"runtime"

	"text2phenotype.com/hmmpos/corpus"
	"text2phenotype.com/hmmpos/pipeline"
	"text2phenotype.com/hmmpos/pos"

	"github.com/cheggaaa/pb/v3"
	"github.com/urfave/cli/v3"
)

func tagCmd() *cli.Command {
	var (
		source     modelSource
		order      string
		inputPath  string
		outputPath string
		workers    int64
	)
	return &cli.Command{
		Name:  "tag",
		Usage: "Tag every line of an input file",
		Flags: append(source.flags(),
			orderFlag(&order),
			&cli.StringFlag{
				Name:        "input",
				Aliases:     []string{"i"},
				Usage:       "sentences to tag, one per line",
				Required:    true,
				Destination: &inputPath,
			},
			&cli.StringFlag{
				Name:        "output",
				Usage:       "where to write tags, one line per input line",
				Required:    true,
				Destination: &outputPath,
			},
			&cli.Int64Flag{
				Name:        "workers",
				Usage:       "sentences tagged in parallel",
				Value:       int64(runtime.NumCPU()),
				Destination: &workers,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			decoderOrder, err := pos.ParseOrder(order)
			if err != nil {
				return err
			}
			model, err := source.load()
			if err != nil {
				return err
			}
			tagger, err := pipeline.NewTagger(model, decoderOrder)
			if err != nil {
				return err
			}

			in, err := os.Open(inputPath)
			if err != nil {
				return err
			}
			sentences, err := corpus.ReadSentences(in)
			_ = in.Close()
			if err != nil {
				return err
			}

			bar := pb.StartNew(len(sentences))
			tags, err := pipeline.TagBatchWithProgress(ctx, tagger, sentences, int(workers), func() { bar.Increment() })
			bar.Finish()
			if err != nil {
				return err
			}

			out, err := os.Create(outputPath)
			if err != nil {
				return err
			}
			if err := corpus.WriteTags(out, tags); err != nil {
				_ = out.Close()
				return err
			}
			return out.Close()
		},
	}
}
