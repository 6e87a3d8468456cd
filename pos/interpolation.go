package pos

import (
	"math"
	"sort"
)

// Weights blend bigram and trigram transition scores. They sum to 1.
type Weights struct {
	Bigram  float64 `json:"bigram"`
	Trigram float64 `json:"trigram"`
	// Degenerate is set when no trigram event voted for either order and
	// the weights fell back to an even split.
	Degenerate bool `json:"degenerate"`
}

var evenWeights = Weights{Bigram: 0.5, Trigram: 0.5, Degenerate: true}

// EstimateWeights runs deleted interpolation over raw counts: every trigram
// event is held out once and votes, with its count, for the order that
// predicts it better without it.
func EstimateWeights(bigram Table[string], trigram Table[TrigramContext]) Weights {
	contexts := make([]TrigramContext, 0, len(trigram))
	for ctx := range trigram {
		contexts = append(contexts, ctx)
	}
	sort.Slice(contexts, func(i, j int) bool {
		return contexts[i].Less(contexts[j])
	})

	var bigramVotes, trigramVotes float64
	for _, ctx := range contexts {
		for _, next := range trigram.Next(ctx) {
			count := trigram[ctx][next]
			if count <= 0 {
				continue
			}

			var c1, c2 float64
			if pair, ok := bigram.Get(ctx.Second, next); ok {
				c1 = heldOutRatio(count-1, pair-1)
				c2 = heldOutRatio(pair-1, bigram.Total(ctx.Second)-1)
			}

			if c1 >= c2 {
				trigramVotes += count
			} else {
				bigramVotes += count
			}
		}
	}

	total := bigramVotes + trigramVotes
	if total == 0 {
		return evenWeights
	}
	trigramWeight := trigramVotes / total
	return Weights{
		Bigram:  1 - trigramWeight,
		Trigram: trigramWeight,
	}
}

func heldOutRatio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	r := num / den
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}
