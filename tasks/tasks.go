package tasks

import (
	"encoding/json"
)

type TaskStatus string

const (
	TaskStatusSubmitted        TaskStatus = "submitted"
	TaskStatusStarted          TaskStatus = "started"
	TaskStatusFailed           TaskStatus = "failed"
	TaskStatusCompletedSuccess TaskStatus = "completed - success"
	TaskStatusCompletedFailure TaskStatus = "completed - failure"
	TaskStatusCanceled         TaskStatus = "canceled"
)

func (s TaskStatus) Complete() bool {
	return s == TaskStatusCompletedSuccess || s == TaskStatusCompletedFailure || s == TaskStatusCanceled
}

// TagTask is the redis document describing one tagging job. Fields written
// by other services are kept as they were when the task is saved back.
type TagTask struct {
	ID               string     `json:"task_id"`
	Profile          string     `json:"profile"`
	TextFileKey      string     `json:"text_file_key"`
	Status           TaskStatus `json:"status"`
	Attempts         int        `json:"attempts"`
	StartedAt        *string    `json:"started_at"`
	CompletedAt      *string    `json:"completed_at"`
	ResultsFileKey   string     `json:"results_file_key"`
	ModelFingerprint string     `json:"model_fingerprint"`
	ErrorMessages    []string   `json:"error_messages"`

	extra map[string]json.RawMessage
}

// taskFields has the fields of TagTask without its methods.
type taskFields TagTask

func (task *TagTask) UnmarshalJSON(b []byte) error {
	var fields taskFields
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for _, key := range knownKeys {
		delete(raw, key)
	}
	*task = TagTask(fields)
	task.extra = raw
	return nil
}

func (task TagTask) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(taskFields(task))
	if err != nil || len(task.extra) == 0 {
		return known, err
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(known, &merged); err != nil {
		return nil, err
	}
	for key, value := range task.extra {
		if _, ok := merged[key]; !ok {
			merged[key] = value
		}
	}
	return json.Marshal(merged)
}

var knownKeys = []string{
	"task_id",
	"profile",
	"text_file_key",
	"status",
	"attempts",
	"started_at",
	"completed_at",
	"results_file_key",
	"model_fingerprint",
	"error_messages",
}
