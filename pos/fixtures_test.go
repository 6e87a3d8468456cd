package pos

import (
	"io"
	"math"
	"strings"

	"github.com/rs/zerolog"
)

func seq(words, tags string) Sequence {
	return Sequence{Words: strings.Fields(words), Tags: strings.Fields(tags)}
}

func toyCorpus() []Sequence {
	return []Sequence{
		seq("the dog runs", "DET N V"),
		seq("a cat jumps", "DET N V"),
	}
}

func largerCorpus() []Sequence {
	return []Sequence{
		seq("the dog runs", "DET N V"),
		seq("a cat jumps", "DET N V"),
		seq("the dog sees a cat", "DET N V DET N"),
		seq("dogs run fast", "N V ADV"),
		seq("the cat runs fast", "DET N V ADV"),
		seq("a dog jumps and runs", "DET N V CNJ V"),
		seq("cats see the dog", "N V DET N"),
	}
}

func quietLogger() Option {
	return WithLogger(zerolog.New(io.Discard))
}

func trainToy(t interface{ Fatalf(string, ...interface{}) }, seqs []Sequence) *TrainedModel {
	m, err := Train(seqs, quietLogger())
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	return m
}

func expSum(row map[string]float64) float64 {
	sum := 0.0
	for _, v := range row {
		sum += math.Exp(v)
	}
	return sum
}
