package pos

import (
	"math"
	"sort"
)

// Table maps a context to its outgoing values keyed by the next symbol.
// The same shape holds raw counts and log-probabilities.
type Table[K comparable] map[K]map[string]float64

func (t Table[K]) ensure(ctx K) map[string]float64 {
	row, ok := t[ctx]
	if !ok {
		row = make(map[string]float64)
		t[ctx] = row
	}
	return row
}

func (t Table[K]) add(ctx K, next string, n float64) {
	t.ensure(ctx)[next] += n
}

func (t Table[K]) Has(ctx K) bool {
	_, ok := t[ctx]
	return ok
}

func (t Table[K]) Get(ctx K, next string) (float64, bool) {
	row, ok := t[ctx]
	if !ok {
		return 0, false
	}
	v, ok := row[next]
	return v, ok
}

// Total sums the outgoing values of ctx.
func (t Table[K]) Total(ctx K) float64 {
	total := 0.0
	for _, v := range t[ctx] {
		total += v
	}
	return total
}

// Next returns the symbols following ctx in ascending order.
func (t Table[K]) Next(ctx K) []string {
	row := t[ctx]
	next := make([]string, 0, len(row))
	for sym := range row {
		next = append(next, sym)
	}
	sort.Strings(next)
	return next
}

func (t Table[K]) Clone() Table[K] {
	if t == nil {
		return nil
	}
	res := make(Table[K], len(t))
	for ctx, row := range t {
		cp := make(map[string]float64, len(row))
		for sym, v := range row {
			cp[sym] = v
		}
		res[ctx] = cp
	}
	return res
}

// LogNormalize turns counts into natural-log conditional probabilities.
// Contexts with no observations stay present with an empty row.
func (t Table[K]) LogNormalize() Table[K] {
	if t == nil {
		return nil
	}
	res := make(Table[K], len(t))
	for ctx, row := range t {
		total := 0.0
		for _, c := range row {
			total += c
		}
		logs := make(map[string]float64, len(row))
		for sym, c := range row {
			logs[sym] = math.Log(c / total)
		}
		res[ctx] = logs
	}
	return res
}

func (t Table[K]) sortedRows() map[K][]string {
	res := make(map[K][]string, len(t))
	for ctx := range t {
		res[ctx] = t.Next(ctx)
	}
	return res
}
