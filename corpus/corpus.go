// Package corpus reads and writes the line-aligned text files a tagger is
// trained and evaluated on: one sentence per line, tokens separated by
// whitespace, and a parallel file holding one tag per token.
package corpus

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"text2phenotype.com/hmmpos/pos"
	"text2phenotype.com/hmmpos/utils"
)

// AlignmentError reports sentence and tag files with different line counts.
type AlignmentError struct {
	Sentences int
	Tags      int
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("corpus has %d sentence lines but %d tag lines", e.Sentences, e.Tags)
}

// ReadSequences pairs every sentence line with its tag line. Lines that are
// blank on both sides are skipped; a line pair with different token counts
// fails with a *pos.AlignmentError naming the line.
func ReadSequences(sentences, tags io.Reader) ([]pos.Sequence, error) {
	sentLines, err := utils.ReadLines(sentences)
	if err != nil {
		return nil, fmt.Errorf("read sentences: %w", err)
	}
	tagLines, err := utils.ReadLines(tags)
	if err != nil {
		return nil, fmt.Errorf("read tags: %w", err)
	}
	if len(sentLines) != len(tagLines) {
		return nil, &AlignmentError{Sentences: len(sentLines), Tags: len(tagLines)}
	}

	seqs := make([]pos.Sequence, 0, len(sentLines))
	for i := range sentLines {
		words := strings.Fields(sentLines[i])
		wordTags := strings.Fields(tagLines[i])
		if len(words) == 0 && len(wordTags) == 0 {
			continue
		}
		if len(words) != len(wordTags) {
			return nil, &pos.AlignmentError{Index: i, Words: len(words), Tags: len(wordTags)}
		}
		seqs = append(seqs, pos.Sequence{Words: words, Tags: wordTags})
	}
	return seqs, nil
}

// ReadSentences splits every line of r into whitespace separated tokens.
// Blank lines are kept as empty sentences so output stays line-aligned.
func ReadSentences(r io.Reader) ([][]string, error) {
	lines, err := utils.ReadLines(r)
	if err != nil {
		return nil, err
	}
	result := make([][]string, len(lines))
	for i, line := range lines {
		result[i] = strings.Fields(line)
	}
	return result, nil
}

func WriteTags(w io.Writer, tags [][]string) error {
	bw := bufio.NewWriter(w)
	for _, line := range tags {
		if _, err := bw.WriteString(strings.Join(line, " ")); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// LoadFiles reads a training corpus from a sentence file and a tag file.
func LoadFiles(sentencesPath, tagsPath string) ([]pos.Sequence, error) {
	sentences, err := os.Open(sentencesPath)
	if err != nil {
		return nil, err
	}
	defer sentences.Close()

	tags, err := os.Open(tagsPath)
	if err != nil {
		return nil, err
	}
	defer tags.Close()

	return ReadSequences(sentences, tags)
}
