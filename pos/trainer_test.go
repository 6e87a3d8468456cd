package pos

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainer(t *testing.T) {
	t.Run("Raw counts", testRawCounts)
	t.Run("Transition tables are normalized", testTransitionsNormalized)
	t.Run("Emission tables are normalized", testEmissionsNormalized)
	t.Run("Counts survive normalization", testCountsKept)
	t.Run("Words are lowercased", testLowercasedWords)
	t.Run("Misaligned sequence", testMisalignedSequence)
	t.Run("Reserved tag", testReservedTag)
	t.Run("Malformed tag", testMalformedTag)
	t.Run("Counts must be positive", testCountsMustBePositive)
	t.Run("Empty corpus", testEmptyCorpus)
	t.Run("Independent trainers", testIndependentTrainers)
}

func testRawCounts(t *testing.T) {
	trainer := NewTrainer()
	for _, s := range toyCorpus() {
		require.NoError(t, trainer.Add(s))
	}
	counts := trainer.Counts()

	wantBigram := Table[string]{
		StartTag: {"DET": 2},
		"DET":    {"N": 2},
		"N":      {"V": 2},
	}
	wantTrigram := Table[TrigramContext]{
		StartContext:                     {"DET": 2},
		{First: StartTag, Second: "DET"}: {"N": 2},
		{First: "DET", Second: "N"}:      {"V": 2},
	}
	wantEmission := Table[string]{
		"DET": {"the": 1, "a": 1},
		"N":   {"dog": 1, "cat": 1},
		"V":   {"runs": 1, "jumps": 1},
	}

	if diff := cmp.Diff(wantBigram, counts.Bigram); diff != "" {
		t.Errorf("bigram counts mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantTrigram, counts.Trigram); diff != "" {
		t.Errorf("trigram counts mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantEmission, counts.Emission); diff != "" {
		t.Errorf("emission counts mismatch (-want +got):\n%s", diff)
	}
}

func testTransitionsNormalized(t *testing.T) {
	m := trainToy(t, largerCorpus())
	for ctx, row := range m.Bigram() {
		assert.InDeltaf(t, 1.0, expSum(row), 1e-9, "bigram context %s", ctx)
	}
	for ctx, row := range m.Trigram() {
		assert.InDeltaf(t, 1.0, expSum(row), 1e-9, "trigram context %s", ctx)
	}
	require.NoError(t, m.Validate(1e-9))
}

func testEmissionsNormalized(t *testing.T) {
	m := trainToy(t, largerCorpus())
	require.NotEmpty(t, m.Emission())
	for tag, row := range m.Emission() {
		assert.InDeltaf(t, 1.0, expSum(row), 1e-9, "tag %s", tag)
	}
}

func testCountsKept(t *testing.T) {
	m := trainToy(t, largerCorpus())
	c, ok := m.Counts.Bigram.Get("N", "V")
	require.True(t, ok)
	assert.Equal(t, 7.0, c)

	score, ok := m.BigramScore("N", "V")
	require.True(t, ok)
	assert.InDelta(t, math.Log(7.0/m.Counts.Bigram.Total("N")), score, 1e-12)
}

func testLowercasedWords(t *testing.T) {
	m := trainToy(t, []Sequence{seq("The Dog RUNS", "DET N V")})
	assert.Equal(t, 0.0, m.EmissionScore("DET", "the"))
	assert.Equal(t, 0.0, m.EmissionScore("DET", "THE"))
	assert.Equal(t, DefaultUnknownScore, m.EmissionScore("N", "the"))
}

func testMisalignedSequence(t *testing.T) {
	_, err := Train([]Sequence{
		seq("the dog runs", "DET N V"),
		seq("a cat", "DET N V"),
	}, quietLogger())

	var alignErr *AlignmentError
	require.True(t, errors.As(err, &alignErr))
	assert.Equal(t, AlignmentError{Index: 1, Words: 2, Tags: 3}, *alignErr)
}

func testReservedTag(t *testing.T) {
	_, err := Train([]Sequence{seq("x", StartTag)}, quietLogger())
	assert.ErrorIs(t, err, ErrReservedTag)
	assert.Contains(t, err.Error(), "sequence 0")

	_, err = Train([]Sequence{seq("a", "DET"), seq("x y", "N "+StartTag)}, quietLogger())
	assert.ErrorIs(t, err, ErrReservedTag)
	assert.Contains(t, err.Error(), "sequence 1")
}

func testMalformedTag(t *testing.T) {
	for _, tag := range []string{"A B", "A\tB", ""} {
		trainer := NewTrainer()
		err := trainer.Add(Sequence{Words: []string{"x"}, Tags: []string{tag}})
		assert.ErrorIsf(t, err, ErrMalformedTag, "tag %q", tag)
		assert.Empty(t, trainer.Counts().Emission)
	}
}

func testCountsMustBePositive(t *testing.T) {
	valid := trainToy(t, toyCorpus()).Counts
	cases := map[string]func(c Counts){
		"negative bigram":   func(c Counts) { c.Bigram[StartTag]["N"] = -1 },
		"zero trigram":      func(c Counts) { c.Trigram[StartContext]["N"] = 0 },
		"NaN emission":      func(c Counts) { c.Emission["N"]["dog"] = math.NaN() },
		"infinite emission": func(c Counts) { c.Emission["V"]["runs"] = math.Inf(1) },
	}
	for name, corrupt := range cases {
		counts := valid.Clone()
		corrupt(counts)
		_, err := FromCounts(counts, quietLogger())
		assert.ErrorIsf(t, err, ErrInvalidCount, name)
	}
}

func testEmptyCorpus(t *testing.T) {
	m, err := Train(nil, quietLogger())
	require.NoError(t, err)
	assert.True(t, m.Bigram().Has(StartTag))
	assert.True(t, m.Trigram().Has(StartContext))
	assert.Empty(t, m.Tags())
	assert.True(t, m.Weights.Degenerate)
}

func testIndependentTrainers(t *testing.T) {
	first := NewTrainer()
	second := NewTrainer()
	require.NoError(t, first.Add(seq("the dog", "DET N")))

	assert.Empty(t, second.Counts().Emission)
	assert.Len(t, first.Counts().Emission, 2)
}

func TestUnknownScoreOption(t *testing.T) {
	m, err := Train(toyCorpus(), quietLogger(), WithUnknownScore(-7))
	require.NoError(t, err)
	assert.Equal(t, -7.0, m.UnknownScore())
	assert.Equal(t, -7.0, m.EmissionScore("DET", "zebra"))
}
