package main

import (
	"errors"

	"text2phenotype.com/hmmpos/corpus"
	"text2phenotype.com/hmmpos/pos"

	"github.com/urfave/cli/v3"
)

// modelSource is either a saved snapshot or a corpus to train on the fly.
type modelSource struct {
	modelPath     string
	sentencesPath string
	tagsPath      string
	unknownScore  float64
}

func (s *modelSource) flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "model",
			Aliases:     []string{"m"},
			Usage:       "path to a model snapshot written by train",
			Destination: &s.modelPath,
		},
		&cli.StringFlag{
			Name:        "sentences",
			Aliases:     []string{"s"},
			Usage:       "training sentences, one per line (instead of --model)",
			Destination: &s.sentencesPath,
		},
		&cli.StringFlag{
			Name:        "tags",
			Aliases:     []string{"t"},
			Usage:       "training tags aligned with --sentences",
			Destination: &s.tagsPath,
		},
		&cli.FloatFlag{
			Name:        "unknown-score",
			Usage:       "log score for words a tag never emitted",
			Value:       pos.DefaultUnknownScore,
			Destination: &s.unknownScore,
		},
	}
}

func (s *modelSource) load() (*pos.TrainedModel, error) {
	switch {
	case s.modelPath != "":
		return pos.LoadModelFromFile(s.modelPath)
	case s.sentencesPath != "" && s.tagsPath != "":
		seqs, err := corpus.LoadFiles(s.sentencesPath, s.tagsPath)
		if err != nil {
			return nil, err
		}
		return pos.Train(seqs, pos.WithUnknownScore(s.unknownScore))
	default:
		return nil, errors.New("either --model or both --sentences and --tags are required")
	}
}

func orderFlag(dest *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "order",
		Aliases:     []string{"o"},
		Usage:       "decoder order: bigram or trigram",
		Value:       pos.Trigram.String(),
		Destination: dest,
	}
}
