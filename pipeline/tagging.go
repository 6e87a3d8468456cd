package pipeline

import (
	"encoding/json"
	"sort"
	"strings"

	"text2phenotype.com/hmmpos/logger"
	"text2phenotype.com/hmmpos/types"
)

// NewSentenceSplitter turns each text into one sentence per non-blank line,
// tokenized on whitespace. Sentence indices are line numbers.
func NewSentenceSplitter() func(in <-chan string) <-chan types.Sentence {
	return func(in <-chan string) <-chan types.Sentence {
		out := make(chan types.Sentence)
		go func() {
			defer close(out)
			for text := range in {
				for i, line := range strings.Split(text, "\n") {
					tokens := strings.Fields(line)
					if len(tokens) == 0 {
						continue
					}
					out <- types.Sentence{Index: i, Tokens: tokens}
				}
			}
		}()
		return out
	}
}

func collectResponse(in <-chan types.Sentence) []types.SentenceResult {
	results := make([]types.SentenceResult, 0)
	for sent := range in {
		res := types.SentenceResult{
			Index:  sent.Index,
			Tokens: sent.Tokens,
			Tags:   sent.Tags,
		}
		if sent.Err != nil {
			res.Error = sent.Err.Error()
			res.Tags = []string{}
		}
		results = append(results, res)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Index < results[j].Index
	})
	return results
}

func NewTaggingPipeline(params Params) Pipeline {
	pplnLogger := logger.NewLogger("Tagging pipeline")
	splitter := NewSentenceSplitter()

	stages := make(map[string]func(<-chan types.Sentence) <-chan types.Sentence, len(params.Profiles))
	for name, profile := range params.Profiles {
		stages[name] = NewPOSTagger(profile.Tagger, profile.Config.WorkerCount())
	}

	return func(request Request) <-chan string {
		responseChan := make(chan string, 1)
		reqLogger := pplnLogger.With().
			Str("tid", request.Tid).
			Str("profile", request.Profile).
			Logger()

		go func() {
			defer close(responseChan)
			profile, ok := params.Profile(request.Profile)
			if !ok {
				reqLogger.Error().Err(ErrUnknownProfile).Msg("Cannot tag request")
				return
			}
			reqLogger.Info().Msg("Started tagging pipeline")

			in := make(chan string)
			tagged := stages[profile.Config.Name](splitter(in))
			in <- request.Text
			close(in)

			response := types.Response{
				Tid:              request.Tid,
				Profile:          profile.Config.Name,
				ModelFingerprint: profile.Fingerprint,
				Sentences:        collectResponse(tagged),
			}
			buf, err := json.Marshal(response)
			if err != nil {
				reqLogger.Err(err).Msg("Failed to marshal response")
				return
			}
			reqLogger.Info().
				Int("sentences", len(response.Sentences)).
				Msg("Finished tagging pipeline")
			responseChan <- string(buf)
		}()

		return responseChan
	}
}
