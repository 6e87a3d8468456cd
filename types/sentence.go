package types

// Sentence is one line of input text travelling through the tagging stages.
type Sentence struct {
	Index  int
	Tokens []string
	Tags   []string
	Err    error
}
