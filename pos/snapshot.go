package pos

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"text2phenotype.com/hmmpos/utils"
)

const snapshotTolerance = 1e-9

// Snapshot is the persisted form of a trained model. Only raw counts are
// stored; tables and weights are rebuilt on load.
type Snapshot struct {
	UnknownScore float64                       `json:"unknownScore"`
	Bigram       map[string]map[string]float64 `json:"bigram"`
	Trigram      map[string]map[string]float64 `json:"trigram"`
	Emission     map[string]map[string]float64 `json:"emission"`
}

func (m *TrainedModel) Snapshot() Snapshot {
	trigram := make(map[string]map[string]float64, len(m.Counts.Trigram))
	for ctx, row := range m.Counts.Trigram.Clone() {
		trigram[ctx.String()] = row
	}
	return Snapshot{
		UnknownScore: m.unknownScore,
		Bigram:       m.Counts.Bigram.Clone(),
		Trigram:      trigram,
		Emission:     m.Counts.Emission.Clone(),
	}
}

// Fingerprint identifies the counts and unknown score a model was built from.
func (m *TrainedModel) Fingerprint() (uint64, error) {
	buf, err := json.Marshal(m.Snapshot())
	if err != nil {
		return 0, err
	}
	return utils.HashBytes(buf), nil
}

func SaveModel(w io.Writer, m *TrainedModel) error {
	if m == nil || !m.Model.trained() {
		return ErrModelNotTrained
	}
	enc := json.NewEncoder(w)
	return enc.Encode(m.Snapshot())
}

func LoadModel(r io.Reader, opts ...Option) (*TrainedModel, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode model snapshot: %w", err)
	}

	counts := Counts{
		Bigram:   snap.Bigram,
		Trigram:  make(Table[TrigramContext], len(snap.Trigram)),
		Emission: snap.Emission,
	}
	if snap.Bigram == nil || snap.Trigram == nil || snap.Emission == nil {
		return nil, ErrModelNotTrained
	}
	for key, row := range snap.Trigram {
		ctx, err := parseTrigramContext(key)
		if err != nil {
			return nil, err
		}
		counts.Trigram[ctx] = row
	}

	opts = append([]Option{WithUnknownScore(snap.UnknownScore)}, opts...)
	m, err := FromCounts(counts, opts...)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(snapshotTolerance); err != nil {
		return nil, fmt.Errorf("invalid model snapshot: %w", err)
	}
	return m, nil
}

func LoadModelFromFile(modelFilePath string) (*TrainedModel, error) {
	f, err := os.Open(modelFilePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadModel(f)
}

func SaveModelToFile(modelFilePath string, m *TrainedModel) error {
	f, err := os.Create(modelFilePath)
	if err != nil {
		return err
	}
	if err := SaveModel(f, m); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
