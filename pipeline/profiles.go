package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"text2phenotype.com/hmmpos/corpus"
	"text2phenotype.com/hmmpos/logger"
	"text2phenotype.com/hmmpos/pos"
	"text2phenotype.com/hmmpos/types"
	"text2phenotype.com/hmmpos/utils"
)

var ErrUnknownProfile = errors.New("unknown tagger profile")

// CorpusLoader fetches the training sequences a profile points at.
type CorpusLoader interface {
	Load(ctx context.Context, cfg types.CorpusConfig) ([]pos.Sequence, error)
}

// FileLoader reads corpora from the local filesystem. Relative paths are
// resolved against BaseDir.
type FileLoader struct {
	BaseDir string
}

func (l FileLoader) Load(_ context.Context, cfg types.CorpusConfig) ([]pos.Sequence, error) {
	return corpus.LoadFiles(l.resolve(cfg.Sentences), l.resolve(cfg.Tags))
}

func (l FileLoader) resolve(p string) string {
	if filepath.IsAbs(p) || l.BaseDir == "" {
		return p
	}
	return filepath.Join(l.BaseDir, p)
}

type downloader interface {
	Download(ctx context.Context, key string) ([]byte, error)
}

// S3Loader reads corpora whose sentences and tags are object keys.
type S3Loader struct {
	Client downloader
}

func (l S3Loader) Load(ctx context.Context, cfg types.CorpusConfig) ([]pos.Sequence, error) {
	if l.Client == nil {
		return nil, errors.New("no S3 client configured")
	}
	sentences, err := l.Client.Download(ctx, cfg.Sentences)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", cfg.Sentences, err)
	}
	tags, err := l.Client.Download(ctx, cfg.Tags)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", cfg.Tags, err)
	}
	return corpus.ReadSequences(bytes.NewReader(sentences), bytes.NewReader(tags))
}

// StorageLoader picks a loader by the corpus storage of a profile. An empty
// storage means a local file.
type StorageLoader map[string]CorpusLoader

func (l StorageLoader) Load(ctx context.Context, cfg types.CorpusConfig) ([]pos.Sequence, error) {
	storage := cfg.Storage
	if storage == "" {
		storage = types.StorageFile
	}
	loader, ok := l[storage]
	if !ok {
		return nil, fmt.Errorf("no corpus loader for storage %q", storage)
	}
	return loader.Load(ctx, cfg)
}

// Profile is a trained tagger ready to serve requests.
type Profile struct {
	Config      types.Configuration
	Order       pos.Order
	Model       *pos.TrainedModel
	Fingerprint string
	Tagger      Tagger
}

type ProfileInfo struct {
	Name        string      `json:"name"`
	Order       string      `json:"order"`
	Tags        int         `json:"tags"`
	Weights     pos.Weights `json:"weights"`
	Fingerprint string      `json:"model_fingerprint"`
}

func (p *Profile) Info() ProfileInfo {
	return ProfileInfo{
		Name:        p.Config.Name,
		Order:       p.Order.String(),
		Tags:        len(p.Model.Tags()),
		Weights:     p.Model.Weights,
		Fingerprint: p.Fingerprint,
	}
}

// NewProfile builds a servable profile from an already trained model.
func NewProfile(cfg types.Configuration, model *pos.TrainedModel) (*Profile, error) {
	order, err := cfg.ModelOrder()
	if err != nil {
		return nil, err
	}
	tagger, err := NewTagger(model, order)
	if err != nil {
		return nil, err
	}
	fingerprint, err := model.Fingerprint()
	if err != nil {
		return nil, err
	}
	return &Profile{
		Config:      cfg,
		Order:       order,
		Model:       model,
		Fingerprint: utils.FormatHash(fingerprint),
		Tagger:      tagger,
	}, nil
}

type Params struct {
	Profiles map[string]*Profile
	// DefaultProfile serves requests that name no profile.
	DefaultProfile string
}

func (params Params) Profile(name string) (*Profile, bool) {
	if name == "" {
		name = params.DefaultProfile
	}
	p, ok := params.Profiles[name]
	return p, ok
}

func (params Params) Names() []string {
	names := make([]string, 0, len(params.Profiles))
	for name := range params.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetDefaultParams trains every profile and picks the first one by name as
// the default.
func GetDefaultParams(ctx context.Context, cfgs []types.Configuration, loader CorpusLoader) (Params, error) {
	profiles, err := TrainProfiles(ctx, cfgs, loader)
	if err != nil {
		return Params{}, err
	}
	params := Params{Profiles: profiles}
	if names := params.Names(); len(names) > 0 {
		params.DefaultProfile = names[0]
	}
	return params, nil
}

// TrainProfiles loads and trains every profile concurrently. Any failing
// profile fails the whole set.
func TrainProfiles(ctx context.Context, cfgs []types.Configuration, loader CorpusLoader) (map[string]*Profile, error) {
	trainLogger := logger.NewLogger("Profile trainer")

	type trained struct {
		profile *Profile
		err     error
	}
	results := make(chan trained, len(cfgs))
	var wg sync.WaitGroup
	for _, cfg := range cfgs {
		wg.Add(1)
		go func(cfg types.Configuration) {
			defer wg.Done()
			profile, err := trainProfile(ctx, cfg, loader)
			if err != nil {
				err = fmt.Errorf("profile %s: %w", cfg.Name, err)
			}
			results <- trained{profile, err}
		}(cfg)
	}
	wg.Wait()
	close(results)

	profiles := make(map[string]*Profile, len(cfgs))
	var errs []error
	for res := range results {
		if res.err != nil {
			trainLogger.Err(res.err).Msg("Failed to train profile")
			errs = append(errs, res.err)
			continue
		}
		profiles[res.profile.Config.Name] = res.profile
		trainLogger.Info().
			Str("profile", res.profile.Config.Name).
			Str("order", res.profile.Order.String()).
			Str("model_fingerprint", res.profile.Fingerprint).
			Msg("Profile ready")
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return profiles, nil
}

func trainProfile(ctx context.Context, cfg types.Configuration, loader CorpusLoader) (*Profile, error) {
	seqs, err := loader.Load(ctx, cfg.Corpus)
	if err != nil {
		return nil, err
	}
	opts := append(cfg.TrainOptions(), pos.WithLogger(logger.NewLogger("POS trainer").With().Str("profile", cfg.Name).Logger()))
	model, err := pos.Train(seqs, opts...)
	if err != nil {
		return nil, err
	}
	return NewProfile(cfg, model)
}
