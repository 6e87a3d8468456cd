package pos

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"text2phenotype.com/hmmpos/logger"

	"github.com/rs/zerolog"
)

var trainerLogger = logger.NewLogger("POS trainer")

type options struct {
	unknownScore float64
	logger       zerolog.Logger
}

type Option func(*options)

func WithUnknownScore(score float64) Option {
	return func(o *options) {
		o.unknownScore = score
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func newOptions(opts []Option) options {
	o := options{
		unknownScore: DefaultUnknownScore,
		logger:       trainerLogger,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Trainer accumulates bigram, trigram and emission counts over aligned
// sequences. Its state belongs to a single training run.
type Trainer struct {
	bigram   Table[string]
	trigram  Table[TrigramContext]
	emission Table[string]
	seen     int
	tokens   int
}

func NewTrainer() *Trainer {
	t := Trainer{
		bigram:   make(Table[string]),
		trigram:  make(Table[TrigramContext]),
		emission: make(Table[string]),
	}
	t.bigram.ensure(StartTag)
	t.trigram.ensure(StartContext)
	return &t
}

// Add counts one sequence. A sequence whose words and tags differ in length
// is rejected with an *AlignmentError and leaves the counts untouched.
func (t *Trainer) Add(seq Sequence) error {
	index := t.seen
	t.seen++
	if len(seq.Words) != len(seq.Tags) {
		return &AlignmentError{Index: index, Words: len(seq.Words), Tags: len(seq.Tags)}
	}
	for _, tag := range seq.Tags {
		if err := checkTag(tag); err != nil {
			return fmt.Errorf("sequence %d: %w", index, err)
		}
	}
	tags := seq.Tags
	if len(tags) == 0 {
		return nil
	}

	t.bigram.add(StartTag, tags[0], 1)
	t.trigram.add(StartContext, tags[0], 1)
	for i := 0; i+1 < len(tags); i++ {
		t.bigram.add(tags[i], tags[i+1], 1)

		prev := StartTag
		if i > 0 {
			prev = tags[i-1]
		}
		t.trigram.add(TrigramContext{First: prev, Second: tags[i]}, tags[i+1], 1)
	}

	for i, word := range seq.Words {
		t.emission.add(tags[i], normalizeWord(word), 1)
	}
	t.tokens += len(tags)
	return nil
}

// Counts returns a copy of the raw counts gathered so far.
func (t *Trainer) Counts() Counts {
	return Counts{
		Bigram:   t.bigram,
		Trigram:  t.trigram,
		Emission: t.emission,
	}.Clone()
}

// Model freezes the current counts into a trained model.
func (t *Trainer) Model(opts ...Option) *TrainedModel {
	o := newOptions(opts)
	o.logger.Info().
		Int("sequences", t.seen).
		Int("tokens", t.tokens).
		Msg("Building model from counts")
	return build(t.Counts(), o)
}

// Train counts every sequence and returns the frozen model.
func Train(seqs []Sequence, opts ...Option) (*TrainedModel, error) {
	trainer := NewTrainer()
	for _, seq := range seqs {
		if err := trainer.Add(seq); err != nil {
			return nil, err
		}
	}
	return trainer.Model(opts...), nil
}

// FromCounts rebuilds a trained model from raw counts. Every count must be
// positive and finite.
func FromCounts(counts Counts, opts ...Option) (*TrainedModel, error) {
	if counts.Bigram == nil || counts.Trigram == nil || counts.Emission == nil {
		return nil, ErrModelNotTrained
	}
	if err := checkCounts("bigram", counts.Bigram); err != nil {
		return nil, err
	}
	if err := checkCounts("trigram", counts.Trigram); err != nil {
		return nil, err
	}
	if err := checkCounts("emission", counts.Emission); err != nil {
		return nil, err
	}
	return build(counts.Clone(), newOptions(opts)), nil
}

// checkTag rejects tags that cannot round-trip through a snapshot, where a
// trigram context is stored as its two tags joined by a space.
func checkTag(tag string) error {
	if tag == StartTag {
		return ErrReservedTag
	}
	if tag == "" || strings.IndexFunc(tag, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%q: %w", tag, ErrMalformedTag)
	}
	return nil
}

func checkCounts[K comparable](name string, t Table[K]) error {
	for ctx, row := range t {
		for next, c := range row {
			if !(c > 0) || math.IsInf(c, 1) {
				return fmt.Errorf("%s count %v -> %s is %g: %w", name, ctx, next, c, ErrInvalidCount)
			}
		}
	}
	return nil
}

func build(counts Counts, o options) *TrainedModel {
	model := NewModel(
		counts.Bigram.LogNormalize(),
		counts.Trigram.LogNormalize(),
		counts.Emission.LogNormalize(),
		o.unknownScore,
	)
	weights := EstimateWeights(counts.Bigram, counts.Trigram)

	event := o.logger.Info()
	if weights.Degenerate {
		event = o.logger.Warn().Bool("degenerate", true)
	}
	event.
		Int("tags", len(model.tags)).
		Float64("bigram_weight", weights.Bigram).
		Float64("trigram_weight", weights.Trigram).
		Msg("Model trained")

	return &TrainedModel{
		Model:   model,
		Counts:  counts,
		Weights: weights,
	}
}
