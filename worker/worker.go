package worker

import (
	"context"
	"fmt"

	"text2phenotype.com/hmmpos/logger"
	"text2phenotype.com/hmmpos/pipeline"
	"text2phenotype.com/hmmpos/rmq"
	"text2phenotype.com/hmmpos/s3client"
	"text2phenotype.com/hmmpos/tasks"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

type Config struct {
	TaskMaxRetries int `envconfig:"HMMPOS_RETRY_TASK_COUNT_MAX" default:"3"`
}

// Worker takes tagging tasks off the queue, runs them through the tagging
// pipeline and records the outcome on the task document.
type Worker struct {
	config Config
	redis  redisTransactions
	s3     s3Transactions
	rmq    rmqTransactions
	log    *zerolog.Logger
	ppln   pipeline.Pipeline
}

func New(ppln pipeline.Pipeline, s3Client *s3client.Client) (*Worker, error) {
	log := logger.NewLogger("Worker")

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		log.Error().Err(err).Msg("Could not read config")
		return nil, err
	}

	worker := Worker{
		config: config,
		s3:     &s3ClientWrapper{s3Client},
		log:    &log,
		ppln:   ppln,
	}
	if err := worker.refreshRMQClient(); err != nil {
		log.Error().Err(err).Msg("Could not create RMQ client")
		return nil, err
	}
	if err := worker.refreshRedisClient(); err != nil {
		log.Error().Err(err).Msg("Could not create Redis client")
		worker.rmq.close()
		return nil, err
	}
	return &worker, nil
}

// StartWorker processes deliveries until ctx is done or the RMQ client
// cannot be refreshed.
func (worker *Worker) StartWorker(ctx context.Context) error {
	defer worker.Close()
	for {
		select {
		case <-ctx.Done():
			worker.log.Info().Msg("Stopping worker")
			return ctx.Err()
		case delivery, ok := <-worker.rmq.getDeliveriesCh():
			if ok {
				go worker.processMessage(ctx, worker.rmq, &delivery)
				continue
			}
			if err := worker.recoverRMQ(nil, "Deliveries channel closed"); err != nil {
				return err
			}
		case rmqErr := <-worker.rmq.getPublisherErrorsCh():
			if rmqErr == nil {
				continue
			}
			if err := worker.recoverRMQ(rmqErr, "Publisher channel received error"); err != nil {
				return err
			}
		case rmqErr := <-worker.rmq.getConsumerErrorsCh():
			if rmqErr == nil {
				continue
			}
			if err := worker.recoverRMQ(rmqErr, "Consumer channel received error"); err != nil {
				return err
			}
		}
	}
}

func (worker *Worker) recoverRMQ(cause error, reason string) error {
	worker.log.Err(cause).Msgf("%s, trying to refresh RMQ client", reason)
	if err := worker.refreshRMQClient(); err != nil {
		return fmt.Errorf("%s and refresh failed with: %w", reason, err)
	}
	return nil
}

func (worker *Worker) Close() {
	worker.redis.close()
	worker.rmq.close()
}

func (worker *Worker) refreshRedisClient() error {
	worker.log.Info().Msg("Refreshing Redis client")
	if oldClient := worker.redis; oldClient != nil {
		defer oldClient.close()
	}
	tasksClient, err := tasks.NewClient()
	if err != nil {
		worker.log.Err(err).Msg("Failed to refresh Redis client")
		return err
	}
	worker.redis = &redisClientWrapper{tasksClient}
	worker.log.Info().Msg("Refreshed Redis client")
	return nil
}

func (worker *Worker) refreshRMQClient() error {
	worker.log.Info().Msg("Refreshing RMQ client")
	if oldClient := worker.rmq; oldClient != nil {
		defer oldClient.close()
	}
	rmqClient, err := rmq.NewClient()
	if err != nil {
		worker.log.Err(err).Msg("Failed to refresh RMQ client")
		return err
	}
	worker.rmq = &rmqClientWrapper{rmqClient}
	worker.log.Info().Msg("Refreshed RMQ client")
	return nil
}
