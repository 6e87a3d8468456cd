package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"text2phenotype.com/hmmpos/pipeline"
	"text2phenotype.com/hmmpos/pos"

	"github.com/urfave/cli/v3"
)

func consoleCmd() *cli.Command {
	var (
		source modelSource
		order  string
	)
	return &cli.Command{
		Name:  "console",
		Usage: "Tag sentences typed on stdin, 'q' quits",
		Flags: append(source.flags(), orderFlag(&order)),
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
			return runConsole(ctx, tagger, cmd.Root().Reader, cmd.Root().Writer)
		},
	}
}

func runConsole(ctx context.Context, tagger pipeline.Tagger, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		if _, err := fmt.Fprint(out, "> "); err != nil {
			return err
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "q" {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		tokens := strings.Fields(line)
		tags, err := tagger(tokens)
		if err != nil {
			if _, werr := fmt.Fprintf(out, "error: %v\n", err); werr != nil {
				return werr
			}
			continue
		}
		pairs := make([]string, len(tokens))
		for i, tok := range tokens {
			pairs[i] = tok + "/" + tags[i]
		}
		if _, err := fmt.Fprintln(out, strings.Join(pairs, " ")); err != nil {
			return err
		}
	}
}
