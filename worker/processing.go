package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"text2phenotype.com/hmmpos/pipeline"
	"text2phenotype.com/hmmpos/tasks"
	"text2phenotype.com/hmmpos/types"
	"text2phenotype.com/hmmpos/utils"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

type Message struct {
	RedisKey string `json:"redis_key"`
	Sender   string `json:"sender"`
	Version  string `json:"version"`
}

type Task struct {
	delivery    *amqp.Delivery
	tagTask     *tasks.TagTask
	message     *Message
	redisKey    string
	fingerprint string
	log         *zerolog.Logger
}

// processMessage replies and settles the delivery through mq, the client the
// delivery was consumed from. StartWorker may replace worker.rmq meanwhile.
func (worker *Worker) processMessage(ctx context.Context, mq rmqTransactions, delivery *amqp.Delivery) {
	rejectLogger := worker.log.With().Str("message_id", delivery.MessageId).Logger()
	task, err := worker.createTask(ctx, delivery)
	if err != nil {
		rejectLogger.Err(err).
			Str("body", string(delivery.Body)).
			Msg("Failed to create task for delivery")
		mq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.processTask(ctx, task); err != nil {
		mq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = mq.sendReply(task, *task.message); err != nil {
		task.log.Err(err).Msg("Got error while sending message to reply queue")
		mq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = mq.acknowledgeDelivery(delivery); err != nil {
		task.log.Err(err).Msg("Failed to acknowledge delivery")
	}
	task.log.Info().Msg("Finished processing RMQ message")
}

func (worker *Worker) createTask(ctx context.Context, delivery *amqp.Delivery) (*Task, error) {
	var message Message
	if err := json.Unmarshal(delivery.Body, &message); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message, got error %w", err)
	}
	tagTask, err := worker.redis.getTagTask(ctx, message.RedisKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query tag task for message, got error %w", err)
	}
	taskLogger := worker.log.With().
		Str("tid", message.RedisKey).
		Str("profile", tagTask.Profile).
		Logger()
	return &Task{
		delivery: delivery,
		tagTask:  tagTask,
		redisKey: message.RedisKey,
		message:  &message,
		log:      &taskLogger,
	}, nil
}

func (worker *Worker) processTask(ctx context.Context, task *Task) error {
	shouldPerform, err := worker.shouldPerformTask(ctx, task)
	if err != nil {
		task.log.Err(err).Msg("Got error while trying to decide whether to run task")
		return err
	}
	if !shouldPerform {
		return nil
	}
	if err = worker.redis.onTaskStarted(ctx, task); err != nil {
		task.log.Err(err).Msg("Failed to update task info")
		return fmt.Errorf("failed to update tag task: %w", err)
	}
	if err = worker.runPipeline(ctx, task); err != nil {
		task.log.Err(err).Msg("Got error while running pipeline")
		return worker.redis.onTaskFailedWithError(ctx, task, err)
	}
	task.log.Info().Msg("Saved results, marking task as complete")
	if err = worker.redis.onTaskComplete(ctx, task); err != nil {
		task.log.Err(err).Msg("Got error while trying to mark task as complete")
		return err
	}
	return nil
}

func (worker *Worker) runPipeline(ctx context.Context, task *Task) (err error) {
	defer utils.RecoverWithError(&err)
	task.log.Info().Msgf("Processing message from RMQ, attempt # %d", task.tagTask.Attempts+1)
	data, err := worker.s3.getText(ctx, task)
	if err != nil {
		task.log.Err(err).Caller().Msg("Could not fetch text from s3")
		return fmt.Errorf("failed fetch text from s3: %w", err)
	}
	request := pipeline.Request{
		Tid:     task.redisKey,
		Text:    string(data),
		Profile: task.tagTask.Profile,
	}
	result, ok := <-worker.ppln(request)
	if !ok {
		task.log.Error().Msg("Pipeline channel was closed before returning anything")
		return errors.New("pipeline channel was closed before returning anything")
	}
	var response types.Response
	if err = json.Unmarshal([]byte(result), &response); err != nil {
		return fmt.Errorf("pipeline returned malformed response: %w", err)
	}
	task.fingerprint = response.ModelFingerprint

	task.log.Info().Msg("Finished pipeline, saving results to s3")
	if err = worker.s3.saveResultsFile(ctx, task, result); err != nil {
		task.log.Err(err).Msg("Got error while trying to save results")
		return err
	}
	return nil
}

func (worker *Worker) shouldPerformTask(ctx context.Context, task *Task) (bool, error) {
	if task.tagTask.Status.Complete() {
		task.log.Info().Msg("Task is already done. (might indicate issue acking message with RMQ). Sending reply.")
		return false, nil
	}
	if task.tagTask.Attempts >= worker.config.TaskMaxRetries {
		task.log.Info().Msg("Tagging task has exceeded retries. Sending reply.")
		return false, worker.redis.onTaskExceededRetries(ctx, task, worker.config.TaskMaxRetries)
	}
	return true, nil
}
