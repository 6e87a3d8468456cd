package corpus

type Score struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

func (s Score) Ratio() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Total)
}

// Accuracy compares tag lines position by position. Every gold position
// counts toward the total and so does every extra position in result;
// positions present on one side only are wrong.
func Accuracy(result, gold [][]string) Score {
	var score Score
	lines := max(len(result), len(gold))
	for i := 0; i < lines; i++ {
		var got, want []string
		if i < len(result) {
			got = result[i]
		}
		if i < len(gold) {
			want = gold[i]
		}
		n := max(len(got), len(want))
		score.Total += n
		for j := 0; j < len(got) && j < len(want); j++ {
			if got[j] == want[j] {
				score.Correct++
			}
		}
	}
	return score
}
