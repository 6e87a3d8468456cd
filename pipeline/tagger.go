package pipeline

import (
	"context"
	"fmt"
	"sync"

	"text2phenotype.com/hmmpos/pos"
	"text2phenotype.com/hmmpos/types"
)

type Tagger func(tokens []string) ([]string, error)

func NewTagger(model *pos.TrainedModel, order pos.Order) (Tagger, error) {
	tagger, err := pos.NewTagger(model, order)
	if err != nil {
		return nil, err
	}
	return Tagger(tagger), nil
}

// NewPOSTagger returns a stage tagging every sentence it receives with at
// most workers sentences in flight. Output order follows completion.
func NewPOSTagger(tagger Tagger, workers int) func(in <-chan types.Sentence) <-chan types.Sentence {
	if workers < 1 {
		workers = 1
	}
	return func(in <-chan types.Sentence) <-chan types.Sentence {
		out := make(chan types.Sentence)
		go func() {
			defer close(out)
			sem := make(chan struct{}, workers)
			var wg sync.WaitGroup
			for sent := range in {
				sem <- struct{}{}
				wg.Add(1)
				go func(sent types.Sentence) {
					defer wg.Done()
					defer func() { <-sem }()
					if sent.Err == nil && len(sent.Tokens) > 0 {
						sent.Tags, sent.Err = tagger(sent.Tokens)
					}
					out <- sent
				}(sent)
			}
			wg.Wait()
		}()
		return out
	}
}

// TagBatch tags sentences with a bounded pool of workers. Results keep the
// order of sentences. The first failure cancels the remaining work.
func TagBatch(ctx context.Context, tagger Tagger, sentences [][]string, workers int) ([][]string, error) {
	return TagBatchWithProgress(ctx, tagger, sentences, workers, nil)
}

// TagBatchWithProgress is TagBatch calling onDone after each tagged sentence.
func TagBatchWithProgress(ctx context.Context, tagger Tagger, sentences [][]string, workers int, onDone func()) ([][]string, error) {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	result := make([][]string, len(sentences))
	jobs := make(chan int)
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				tags, err := tagger(sentences[i])
				if err != nil {
					fail(fmt.Errorf("sentence %d: %w", i, err))
					continue
				}
				result[i] = tags
				if onDone != nil {
					onDone()
				}
			}
		}()
	}

feed:
	for i := range sentences {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
