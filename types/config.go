package types

import (
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"text2phenotype.com/hmmpos/logger"
	"text2phenotype.com/hmmpos/pos"

	"gopkg.in/yaml.v3"
)

const (
	StorageFile = "file"
	StorageS3   = "s3"

	defaultWorkers = 4
)

type CorpusConfig struct {
	Sentences string `yaml:"sentences" json:"sentences"`
	Tags      string `yaml:"tags" json:"tags"`
	Storage   string `yaml:"storage" json:"storage"`
}

// Configuration describes one tagger profile: the corpus it is trained on
// and how its model decodes.
type Configuration struct {
	Name         string       `json:"name"`
	FilePath     string       `json:"file_path"`
	Order        string       `yaml:"order" json:"order"`
	UnknownScore *float64     `yaml:"unknown_score" json:"unknown_score"`
	Workers      int          `yaml:"workers" json:"workers"`
	Corpus       CorpusConfig `yaml:"corpus" json:"corpus"`
}

func (cfg Configuration) ModelOrder() (pos.Order, error) {
	return pos.ParseOrder(cfg.Order)
}

func (cfg Configuration) TrainOptions() []pos.Option {
	if cfg.UnknownScore == nil {
		return nil
	}
	return []pos.Option{pos.WithUnknownScore(*cfg.UnknownScore)}
}

func (cfg Configuration) WorkerCount() int {
	if cfg.Workers <= 0 {
		return defaultWorkers
	}
	return cfg.Workers
}

func (cfg Configuration) Validate() error {
	if _, err := cfg.ModelOrder(); err != nil {
		return err
	}
	if cfg.Corpus.Sentences == "" || cfg.Corpus.Tags == "" {
		return errors.New("corpus sentences and tags are required")
	}
	switch cfg.Corpus.Storage {
	case "", StorageFile, StorageS3:
	default:
		return fmt.Errorf("wrong corpus storage %q", cfg.Corpus.Storage)
	}
	if cfg.UnknownScore != nil && *cfg.UnknownScore > 0 {
		return errors.New("unknown_score must be a log-probability")
	}
	return nil
}

func ParseConfiguration(name string, buf []byte) (Configuration, error) {
	cfg := Configuration{Name: name}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("profile %s: %w", name, err)
	}
	return cfg, nil
}

// LoadConfigurations reads every *.yaml profile of dirPath. Profiles that
// fail to parse or validate are logged and skipped.
func LoadConfigurations(dirPath string) ([]Configuration, error) {
	cfgLogger := logger.NewLogger("LoadConfigurations")

	files, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, err
	}

	var wg sync.WaitGroup
	configChan := make(chan Configuration, len(files))
	for _, f := range files {
		// Skip dirs and non-yaml files
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".yaml") {
			continue
		}

		wg.Add(1)
		go func(file os.DirEntry) {
			defer wg.Done()
			filePath := path.Join(dirPath, file.Name())
			buf, err := os.ReadFile(filePath)
			if err != nil {
				cfgLogger.Err(err).Str("file", filePath).Msg("Could not read profile")
				return
			}
			cfg, err := ParseConfiguration(strings.TrimSuffix(file.Name(), ".yaml"), buf)
			if err != nil {
				cfgLogger.Err(err).Str("file", filePath).Msg("Skipping invalid profile")
				return
			}
			cfg.FilePath = filePath
			configChan <- cfg
		}(f)
	}

	wg.Wait()
	close(configChan)

	configs := make([]Configuration, 0, len(configChan))
	for cfg := range configChan {
		configs = append(configs, cfg)
	}
	sort.Slice(configs, func(i, j int) bool {
		return configs[i].Name < configs[j].Name
	})
	return configs, nil
}
