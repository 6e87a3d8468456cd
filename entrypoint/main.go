package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"text2phenotype.com/hmmpos/api"
	"text2phenotype.com/hmmpos/logger"
	"text2phenotype.com/hmmpos/pipeline"
	"text2phenotype.com/hmmpos/s3client"
	"text2phenotype.com/hmmpos/types"
	"text2phenotype.com/hmmpos/worker"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

type Config struct {
	ConfigPath    string `envconfig:"HMMPOS_CONFIG_PATH" required:"true"`
	CorpusDir     string `envconfig:"HMMPOS_CORPUS_DIR" default:""`
	RestAPIActive bool   `envconfig:"HMMPOS_REST_API_ACTIVE" default:"false"`
	RestAPIPort   string `envconfig:"HMMPOS_REST_API_PORT" default:"10000"`
	WorkerActive  bool   `envconfig:"HMMPOS_WORKER_ACTIVE" default:"true"`
}

const (
	pipelineStartMaxRetries = 5
	retryDelay              = 5 * time.Second
)

func main() {
	logger.SetupLogging()
	mainLogger := logger.NewLogger("Main")

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		mainLogger.Fatal().Caller().Err(err).Msg("Failed to read environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s3Client, err := newS3ClientIfNeeded(config)
	if err != nil {
		mainLogger.Fatal().Caller().Err(err).Msg("Could not initialize S3 client")
	}

	params, err := loadParams(ctx, config, s3Client, mainLogger)
	if err != nil {
		mainLogger.Fatal().Caller().Err(err).Msgf("Could not train profiles after %d retries, exiting", pipelineStartMaxRetries)
	}
	mainLogger.Info().Strs("profiles", params.Names()).Msg("Profiles loaded")

	if config.RestAPIActive {
		go serveAPI(ctx, config, params, mainLogger)
	}

	if !config.WorkerActive {
		<-ctx.Done()
		return
	}

	ppln := pipeline.NewTaggingPipeline(params)
	mainLogger.Info().Msg("Start tagging worker")
	for ctx.Err() == nil {
		rmqWorker, err := worker.New(ppln, s3Client)
		if err != nil {
			mainLogger.Fatal().Err(err).Msg("Could not initialize RMQ worker")
		}
		err = rmqWorker.StartWorker(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			mainLogger.Err(err).Msgf("Worker returned with error. Launching new in %s", retryDelay)
			time.Sleep(retryDelay)
		}
	}
}

// newS3ClientIfNeeded connects to S3 when the worker runs or a profile
// keeps its corpus there.
func newS3ClientIfNeeded(config Config) (*s3client.Client, error) {
	if !config.WorkerActive {
		cfgs, err := types.LoadConfigurations(config.ConfigPath)
		if err != nil {
			return nil, err
		}
		needed := false
		for _, cfg := range cfgs {
			needed = needed || cfg.Corpus.Storage == types.StorageS3
		}
		if !needed {
			return nil, nil
		}
	}
	return s3client.New()
}

func loadParams(ctx context.Context, config Config, s3Client *s3client.Client, log zerolog.Logger) (pipeline.Params, error) {
	loader := pipeline.StorageLoader{
		types.StorageFile: pipeline.FileLoader{BaseDir: config.CorpusDir},
	}
	if s3Client != nil {
		loader[types.StorageS3] = pipeline.S3Loader{Client: s3Client}
	}

	var lastErr error
	for retry := 0; retry < pipelineStartMaxRetries; retry++ {
		if retry > 0 {
			log.Err(lastErr).Msgf("Failed to start tagging pipeline. Retrying in %s", retryDelay)
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return pipeline.Params{}, ctx.Err()
			}
		}
		cfgs, err := types.LoadConfigurations(config.ConfigPath)
		if err != nil {
			lastErr = err
			continue
		}
		if len(cfgs) == 0 {
			lastErr = fmt.Errorf("no tagger profiles in %s", config.ConfigPath)
			continue
		}
		log.Info().Msgf("Loaded %d configurations", len(cfgs))
		params, err := pipeline.GetDefaultParams(ctx, cfgs, loader)
		if err != nil {
			lastErr = err
			continue
		}
		return params, nil
	}
	return pipeline.Params{}, lastErr
}

func serveAPI(ctx context.Context, config Config, params pipeline.Params, log zerolog.Logger) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", config.RestAPIPort),
		Handler:           api.NewHandler(params).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), retryDelay)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Info().Msgf("REST API on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Caller().Err(err).Msg("REST API stopped with error")
	}
}
