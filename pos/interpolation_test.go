package pos

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateWeights(t *testing.T) {
	t.Run("Toy corpus favours trigrams", testToyWeights)
	t.Run("Votes are weighted by trigram counts", testMixedVotes)
	t.Run("Zero denominators count as zero", testZeroDenominators)
	t.Run("Absent bigram counts as zero", testAbsentBigram)
	t.Run("No trigram events", testDegenerateWeights)
	t.Run("Weights sum to one", testWeightsSumToOne)
}

func testToyWeights(t *testing.T) {
	m := trainToy(t, toyCorpus())
	assert.Equal(t, Weights{Bigram: 0, Trigram: 1}, m.Weights)
}

func testMixedVotes(t *testing.T) {
	bigram := Table[string]{
		"B": {"C": 3, "D": 1},
		"Y": {"Z": 3},
	}
	trigram := Table[TrigramContext]{
		{First: "A", Second: "B"}: {"C": 1},
		{First: "X", Second: "Y"}: {"Z": 3},
	}
	// (A,B)->C: c1 = 0/2, c2 = 2/3, bigram gets 1.
	// (X,Y)->Z: c1 = 2/2, c2 = 2/2, trigram gets 3.
	w := EstimateWeights(bigram, trigram)
	assert.InDelta(t, 0.25, w.Bigram, 1e-12)
	assert.InDelta(t, 0.75, w.Trigram, 1e-12)
	assert.False(t, w.Degenerate)
}

func testZeroDenominators(t *testing.T) {
	bigram := Table[string]{"B": {"C": 1}}
	trigram := Table[TrigramContext]{{First: "A", Second: "B"}: {"C": 1}}

	w := EstimateWeights(bigram, trigram)
	assert.Equal(t, Weights{Bigram: 0, Trigram: 1}, w)
}

func testAbsentBigram(t *testing.T) {
	trigram := Table[TrigramContext]{{First: "A", Second: "B"}: {"C": 2}}

	w := EstimateWeights(Table[string]{}, trigram)
	assert.Equal(t, Weights{Bigram: 0, Trigram: 1}, w)
}

func testDegenerateWeights(t *testing.T) {
	w := EstimateWeights(Table[string]{StartTag: {}}, Table[TrigramContext]{StartContext: {}})
	assert.Equal(t, Weights{Bigram: 0.5, Trigram: 0.5, Degenerate: true}, w)
}

func testWeightsSumToOne(t *testing.T) {
	m := trainToy(t, largerCorpus())
	assert.InDelta(t, 1.0, m.Weights.Bigram+m.Weights.Trigram, 1e-12)
	assert.GreaterOrEqual(t, m.Weights.Bigram, 0.0)
	assert.GreaterOrEqual(t, m.Weights.Trigram, 0.0)
}

func TestHeldOutRatio(t *testing.T) {
	assert.Equal(t, 0.0, heldOutRatio(3, 0))
	assert.Equal(t, 0.0, heldOutRatio(0, 0))
	assert.Equal(t, 0.5, heldOutRatio(1, 2))
	assert.Equal(t, -1.0, heldOutRatio(1, -1))
}
