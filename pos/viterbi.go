package pos

import (
	"fmt"
	"sort"
)

// Order selects the n-gram order of the transition model used for decoding.
type Order int

const (
	Bigram  Order = 2
	Trigram Order = 3
)

func (o Order) String() string {
	switch o {
	case Bigram:
		return "bigram"
	case Trigram:
		return "trigram"
	}
	return fmt.Sprintf("order(%d)", int(o))
}

func ParseOrder(s string) (Order, error) {
	switch s {
	case "bigram", "2":
		return Bigram, nil
	case "trigram", "3", "":
		return Trigram, nil
	}
	return 0, fmt.Errorf("unknown model order %q", s)
}

// Decoder finds the most likely tag sequence for a sentence.
// A Decoder never mutates its model and may be shared between goroutines.
type Decoder struct {
	model *TrainedModel
	order Order
}

func NewDecoder(m *TrainedModel, order Order) (*Decoder, error) {
	if m == nil || !m.Model.trained() {
		return nil, ErrModelNotTrained
	}
	switch order {
	case Bigram:
	case Trigram:
		if m.trigram == nil {
			return nil, ErrModelNotTrained
		}
	default:
		return nil, fmt.Errorf("unsupported model order %v", order)
	}
	return &Decoder{model: m, order: order}, nil
}

func (d *Decoder) Order() Order {
	return d.order
}

// Decode returns one tag per token. Words are lowercased before lookup.
func (d *Decoder) Decode(tokens []string) ([]string, error) {
	if d == nil || d.model == nil {
		return nil, ErrModelNotTrained
	}
	words := make([]string, len(tokens))
	for i, token := range tokens {
		words[i] = normalizeWord(token)
	}

	m := d.model.Model
	if d.order == Bigram {
		return viterbi[string](bigramSpace{m}, m, words)
	}
	return viterbi[TrigramContext](trigramSpace{m: m, weights: d.model.Weights}, m, words)
}

// stateSpace describes the lattice nodes of one n-gram order.
type stateSpace[S comparable] interface {
	start() S
	less(a, b S) bool
	tag(s S) string
	// expand reports every successor of s in a fixed order together with
	// the transition log score. Dead ends report nothing.
	expand(s S, visit func(next S, tag string, transition float64))
}

type bigramSpace struct {
	m *Model
}

func (bigramSpace) start() string         { return StartTag }
func (bigramSpace) less(a, b string) bool { return a < b }
func (bigramSpace) tag(s string) string   { return s }

func (sp bigramSpace) expand(s string, visit func(string, string, float64)) {
	row := sp.m.bigram[s]
	for _, next := range sp.m.bigramNext[s] {
		visit(next, next, row[next])
	}
}

type trigramSpace struct {
	m       *Model
	weights Weights
}

func (trigramSpace) start() TrigramContext         { return StartContext }
func (trigramSpace) less(a, b TrigramContext) bool { return a.Less(b) }
func (trigramSpace) tag(s TrigramContext) string   { return s.Second }

// expand blends both orders when the trigram context was seen in training
// and falls back to the plain bigram score otherwise.
func (sp trigramSpace) expand(s TrigramContext, visit func(TrigramContext, string, float64)) {
	if next, ok := sp.m.trigramNext[s]; ok {
		row := sp.m.trigram[s]
		for _, tag := range next {
			bigram, ok := sp.m.BigramScore(s.Second, tag)
			if !ok {
				bigram = sp.m.unknownScore
			}
			visit(s.Shift(tag), tag, sp.weights.Bigram*bigram+sp.weights.Trigram*row[tag])
		}
		return
	}

	row := sp.m.bigram[s.Second]
	for _, tag := range sp.m.bigramNext[s.Second] {
		visit(s.Shift(tag), tag, row[tag])
	}
}

func viterbi[S comparable](space stateSpace[S], m *Model, words []string) ([]string, error) {
	if len(words) == 0 {
		return []string{}, nil
	}

	start := space.start()
	frontier := []S{start}
	scores := map[S]float64{start: 0}
	backPointers := make([]map[S]S, len(words))

	for i, word := range words {
		nextScores := make(map[S]float64)
		back := make(map[S]S)

		relax := func(prev S, base float64) func(S, string, float64) {
			return func(next S, tag string, transition float64) {
				score := base + transition + m.EmissionScore(tag, word)
				if best, seen := nextScores[next]; !seen || score > best {
					nextScores[next] = score
					back[next] = prev
				}
			}
		}

		for _, s := range frontier {
			space.expand(s, relax(s, scores[s]))
		}

		// Every path died out: restart from the sentence start context,
		// continuing the best path so far.
		if len(nextScores) == 0 {
			best := argmax(frontier, scores)
			space.expand(start, relax(best, scores[best]))
			if len(nextScores) == 0 {
				return nil, ErrNoViablePath
			}
		}

		frontier = sortedStates(nextScores, space.less)
		scores = nextScores
		backPointers[i] = back
	}

	state := argmax(frontier, scores)
	tags := make([]string, len(words))
	for i := len(words) - 1; i >= 0; i-- {
		tags[i] = space.tag(state)
		state = backPointers[i][state]
	}
	return tags, nil
}

// argmax returns the first state of the ordered frontier holding the best score.
func argmax[S comparable](frontier []S, scores map[S]float64) S {
	best := frontier[0]
	for _, s := range frontier[1:] {
		if scores[s] > scores[best] {
			best = s
		}
	}
	return best
}

func sortedStates[S comparable](scores map[S]float64, less func(a, b S) bool) []S {
	states := make([]S, 0, len(scores))
	for s := range scores {
		states = append(states, s)
	}
	sort.Slice(states, func(i, j int) bool {
		return less(states[i], states[j])
	})
	return states
}
