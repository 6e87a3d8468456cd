package worker

import (
	"context"
	"errors"

	"text2phenotype.com/hmmpos/pipeline"
	"text2phenotype.com/hmmpos/tasks"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

const mockResponse = `{"tid":"t-1","profile":"brown","model_fingerprint":"00000000000000ff","sentences":[]}`

type failingMethod struct {
	fail bool
}

type withValue struct {
	fail          bool
	returnedValue interface{}
}

type pipelineMock struct {
	ppln   pipeline.Pipeline
	config pipelineMockConfig
	calls  pipelineCall
}

type pipelineMockConfig struct {
	fail   bool
	panics bool
	result string
}

type pipelineCall struct {
	pipeline bool
}

type redisMock struct {
	config redisMockConfig
	calls  redisMockCalls
	// fingerprint seen by onTaskComplete
	fingerprint string
}

type redisMockConfig struct {
	getTagTask            withValue
	onTaskStarted         failingMethod
	onTaskExceededRetries failingMethod
	onTaskFailedWithError failingMethod
	onTaskComplete        failingMethod
}

type redisMockCalls struct {
	getTagTask            bool
	onTaskStarted         bool
	onTaskExceededRetries bool
	onTaskFailedWithError bool
	onTaskComplete        bool
}

type rmqMock struct {
	config rmqMockConfig
	calls  rmqMockCalls
}

type rmqMockConfig struct {
	sendReply           failingMethod
	acknowledgeDelivery failingMethod
}

type rmqMockCalls struct {
	sendReply           bool
	acknowledgeDelivery bool
	rejectDelivery      bool
}

type s3Mock struct {
	config s3MockConfig
	calls  s3MockCalls
}

type s3MockConfig struct {
	getText         withValue
	saveResultsFile failingMethod
}

type s3MockCalls struct {
	getText         bool
	saveResultsFile bool
}

func (mock *rmqMock) close() {}

func (mock *redisMock) close() {}

func getPipelineMock(config pipelineMockConfig) *pipelineMock {
	mock := pipelineMock{config: config}
	if mock.config.result == "" {
		mock.config.result = mockResponse
	}
	mock.ppln = func(request pipeline.Request) <-chan string {
		mock.calls.pipeline = true
		if mock.config.panics {
			panic("tagger exploded")
		}
		ch := make(chan string, 1)
		if !mock.config.fail {
			ch <- mock.config.result
		}
		close(ch)
		return ch
	}
	return &mock
}

func (mock *redisMock) getTagTask(_ context.Context, redisKey string) (*tasks.TagTask, error) {
	mock.calls.getTagTask = true
	if mock.config.getTagTask.fail {
		return nil, errors.New("failed to get tag task")
	}
	if task, ok := mock.config.getTagTask.returnedValue.(tasks.TagTask); ok {
		return &task, nil
	}
	return &tasks.TagTask{ID: redisKey, Profile: "brown"}, nil
}

func (mock *redisMock) onTaskStarted(context.Context, *Task) error {
	mock.calls.onTaskStarted = true
	if mock.config.onTaskStarted.fail {
		return errors.New("failed to update tag task on start")
	}
	return nil
}

func (mock *redisMock) onTaskExceededRetries(context.Context, *Task, int) error {
	mock.calls.onTaskExceededRetries = true
	if mock.config.onTaskExceededRetries.fail {
		return errors.New("failed to update tag task on exceeded retries")
	}
	return nil
}

func (mock *redisMock) onTaskFailedWithError(context.Context, *Task, error) error {
	mock.calls.onTaskFailedWithError = true
	if mock.config.onTaskFailedWithError.fail {
		return errors.New("failed to update tag task on fail with error")
	}
	return nil
}

func (mock *redisMock) onTaskComplete(_ context.Context, task *Task) error {
	mock.calls.onTaskComplete = true
	mock.fingerprint = task.fingerprint
	if mock.config.onTaskComplete.fail {
		return errors.New("failed to update tag task on complete")
	}
	return nil
}

func (mock *rmqMock) rejectDelivery(*amqp.Delivery, *zerolog.Logger) {
	mock.calls.rejectDelivery = true
}

func (mock *rmqMock) getDeliveriesCh() <-chan amqp.Delivery {
	return nil
}

func (mock *rmqMock) getConsumerErrorsCh() <-chan *amqp.Error {
	return nil
}

func (mock *rmqMock) getPublisherErrorsCh() <-chan *amqp.Error {
	return nil
}

func (mock *rmqMock) sendReply(*Task, Message) error {
	mock.calls.sendReply = true
	if mock.config.sendReply.fail {
		return errors.New("failed to send reply")
	}
	return nil
}

func (mock *rmqMock) acknowledgeDelivery(*amqp.Delivery) error {
	mock.calls.acknowledgeDelivery = true
	if mock.config.acknowledgeDelivery.fail {
		return errors.New("failed to acknowledge delivery")
	}
	return nil
}

func (mock *s3Mock) getText(context.Context, *Task) ([]byte, error) {
	mock.calls.getText = true
	if mock.config.getText.fail {
		return nil, errors.New("mock: failed to load from s3")
	}
	if b, ok := mock.config.getText.returnedValue.([]byte); ok {
		return b, nil
	}
	return []byte("the dog runs"), nil
}

func (mock *s3Mock) saveResultsFile(context.Context, *Task, string) error {
	mock.calls.saveResultsFile = true
	if mock.config.saveResultsFile.fail {
		return errors.New("failed to upload results")
	}
	return nil
}
