package worker

import (
	"context"

	"text2phenotype.com/hmmpos/s3client"
)

type s3Transactions interface {
	saveResultsFile(ctx context.Context, task *Task, result string) error
	getText(ctx context.Context, task *Task) ([]byte, error)
}

type s3ClientWrapper struct {
	s3Client *s3client.Client
}

func (wrapper *s3ClientWrapper) saveResultsFile(ctx context.Context, task *Task, result string) error {
	return wrapper.s3Client.Upload(ctx, []byte(result), getResultsFileKey(task))
}

func (wrapper *s3ClientWrapper) getText(ctx context.Context, task *Task) ([]byte, error) {
	return wrapper.s3Client.Download(ctx, task.tagTask.TextFileKey)
}
