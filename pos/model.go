package pos

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// DefaultUnknownScore is the log-probability used for a word a tag never emitted.
const DefaultUnknownScore = -100.0

// Model holds the log-probability tables of an HMM tagger.
// It is read-only once constructed and safe for concurrent use.
type Model struct {
	bigram       Table[string]
	trigram      Table[TrigramContext]
	emission     Table[string]
	unknownScore float64

	bigramNext  map[string][]string
	trigramNext map[TrigramContext][]string
	tags        []string
}

// NewModel wraps already normalized tables. The trigram table may be nil
// when only bigram decoding is needed. Callers must not modify the tables afterwards.
func NewModel(bigram Table[string], trigram Table[TrigramContext], emission Table[string], unknownScore float64) *Model {
	m := Model{
		bigram:       bigram,
		trigram:      trigram,
		emission:     emission,
		unknownScore: unknownScore,
		bigramNext:   bigram.sortedRows(),
		trigramNext:  trigram.sortedRows(),
	}
	for tag := range emission {
		m.tags = append(m.tags, tag)
	}
	sort.Strings(m.tags)
	return &m
}

func (m *Model) trained() bool {
	return m != nil && m.bigram != nil && m.emission != nil
}

func (m *Model) BigramScore(prev, next string) (float64, bool) {
	return m.bigram.Get(prev, next)
}

func (m *Model) TrigramScore(ctx TrigramContext, next string) (float64, bool) {
	return m.trigram.Get(ctx, next)
}

// EmissionScore returns log P(word|tag), or the unknown score when the tag never emitted word.
func (m *Model) EmissionScore(tag, word string) float64 {
	if score, ok := m.emission.Get(tag, normalizeWord(word)); ok {
		return score
	}
	return m.unknownScore
}

func (m *Model) UnknownScore() float64 {
	return m.unknownScore
}

// Tags returns the tag vocabulary in ascending order.
func (m *Model) Tags() []string {
	res := make([]string, len(m.tags))
	copy(res, m.tags)
	return res
}

func (m *Model) Bigram() Table[string] {
	return m.bigram
}

func (m *Model) Trigram() Table[TrigramContext] {
	return m.trigram
}

func (m *Model) Emission() Table[string] {
	return m.emission
}

// Validate checks that every non-empty row of every table is a normalized
// log distribution within tolerance.
func (m *Model) Validate(tolerance float64) error {
	if !m.trained() {
		return ErrModelNotTrained
	}
	if err := validateRows("bigram", m.bigram, tolerance); err != nil {
		return err
	}
	if err := validateRows("trigram", m.trigram, tolerance); err != nil {
		return err
	}
	return validateRows("emission", m.emission, tolerance)
}

func validateRows[K comparable](name string, t Table[K], tolerance float64) error {
	for ctx, row := range t {
		if len(row) == 0 {
			continue
		}
		logs := make([]float64, 0, len(row))
		for _, v := range row {
			logs = append(logs, v)
		}
		if sum := floats.LogSumExp(logs); !(math.Abs(sum) <= tolerance) {
			return fmt.Errorf("%s row %v is not normalized: log sum %g", name, ctx, sum)
		}
	}
	return nil
}

func normalizeWord(word string) string {
	return strings.ToLower(word)
}
