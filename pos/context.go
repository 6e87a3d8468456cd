package pos

import (
	"fmt"
	"strings"
)

// StartTag is the pseudo-tag standing before the first word of a sentence.
// It is never emitted.
const StartTag = "*START*"

// TrigramContext is the ordered pair of tags preceding the tag being predicted.
type TrigramContext struct {
	First  string
	Second string
}

// StartContext is the trigram context of the first word of a sentence.
var StartContext = TrigramContext{First: StartTag, Second: StartTag}

// Shift returns the context that follows c once next has been chosen.
func (c TrigramContext) Shift(next string) TrigramContext {
	return TrigramContext{First: c.Second, Second: next}
}

func (c TrigramContext) Less(o TrigramContext) bool {
	if c.First != o.First {
		return c.First < o.First
	}
	return c.Second < o.Second
}

func (c TrigramContext) String() string {
	return c.First + " " + c.Second
}

func parseTrigramContext(s string) (TrigramContext, error) {
	first, second, ok := strings.Cut(s, " ")
	if !ok || first == "" || second == "" || strings.Contains(second, " ") {
		return TrigramContext{}, fmt.Errorf("malformed trigram context %q", s)
	}
	return TrigramContext{First: first, Second: second}, nil
}
