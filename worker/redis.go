package worker

import (
	"context"
	"fmt"

	"text2phenotype.com/hmmpos/tasks"
)

type redisTransactions interface {
	getTagTask(ctx context.Context, redisKey string) (*tasks.TagTask, error)
	onTaskStarted(ctx context.Context, task *Task) error
	onTaskExceededRetries(ctx context.Context, task *Task, maxRetries int) error
	onTaskFailedWithError(ctx context.Context, task *Task, err error) error
	onTaskComplete(ctx context.Context, task *Task) error
	close()
}

type redisClientWrapper struct {
	tasksClient tasks.Client
}

func (wrapper *redisClientWrapper) close() {
	_ = wrapper.tasksClient.Close()
}

func (wrapper *redisClientWrapper) getTagTask(ctx context.Context, redisKey string) (*tasks.TagTask, error) {
	return wrapper.tasksClient.Get(ctx, redisKey)
}

func (wrapper *redisClientWrapper) onTaskStarted(ctx context.Context, task *Task) error {
	return wrapper.tasksClient.Update(ctx, task.redisKey, startTask)
}

func (wrapper *redisClientWrapper) onTaskExceededRetries(ctx context.Context, task *Task, maxRetries int) error {
	return wrapper.tasksClient.Update(ctx, task.redisKey, func(tagTask *tasks.TagTask) {
		exceedRetries(tagTask, maxRetries)
	})
}

func (wrapper *redisClientWrapper) onTaskFailedWithError(ctx context.Context, task *Task, err error) error {
	return wrapper.tasksClient.Update(ctx, task.redisKey, func(tagTask *tasks.TagTask) {
		failTask(tagTask, err)
	})
}

func (wrapper *redisClientWrapper) onTaskComplete(ctx context.Context, task *Task) error {
	return wrapper.tasksClient.Update(ctx, task.redisKey, func(tagTask *tasks.TagTask) {
		completeTask(tagTask, getResultsFileKey(task), task.fingerprint)
	})
}

func startTask(task *tasks.TagTask) {
	task.Status = tasks.TaskStatusStarted
	task.Attempts++
	task.StartedAt = getFormattedNow()
	task.CompletedAt = nil
}

func exceedRetries(task *tasks.TagTask, maxRetries int) {
	task.Status = tasks.TaskStatusCompletedFailure
	task.CompletedAt = getFormattedNow()
	task.ErrorMessages = append(task.ErrorMessages, fmt.Sprintf(
		"Task has exceeded retries. (Attempts: %d, max retries: %d)",
		task.Attempts,
		maxRetries,
	))
}

func failTask(task *tasks.TagTask, err error) {
	task.Status = tasks.TaskStatusFailed
	task.CompletedAt = getFormattedNow()
	task.ErrorMessages = append(task.ErrorMessages, err.Error())
}

func completeTask(task *tasks.TagTask, resultsFileKey, fingerprint string) {
	if !task.Status.Complete() {
		task.Status = tasks.TaskStatusCompletedSuccess
	}
	task.CompletedAt = getFormattedNow()
	task.ResultsFileKey = resultsFileKey
	task.ModelFingerprint = fingerprint
}
