package pos

// Sequence is one training sentence with its gold tags, aligned by position.
type Sequence struct {
	Words []string `json:"words"`
	Tags  []string `json:"tags"`
}

// Counts are the raw occurrence counts gathered while training.
type Counts struct {
	Bigram   Table[string]
	Trigram  Table[TrigramContext]
	Emission Table[string]
}

func (c Counts) Clone() Counts {
	return Counts{
		Bigram:   c.Bigram.Clone(),
		Trigram:  c.Trigram.Clone(),
		Emission: c.Emission.Clone(),
	}
}

// TrainedModel bundles the frozen tables with the counts they were built
// from and the interpolation weights estimated from those counts.
type TrainedModel struct {
	*Model
	Counts  Counts
	Weights Weights
}
