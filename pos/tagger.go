package pos

// NewTagger returns a tagging function bound to a decoder of the given order.
func NewTagger(model *TrainedModel, order Order) (func(tokens []string) ([]string, error), error) {
	decoder, err := NewDecoder(model, order)
	if err != nil {
		return nil, err
	}

	return func(tokens []string) ([]string, error) {
		return decoder.Decode(tokens)
	}, nil
}
