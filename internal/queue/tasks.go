package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dunamismax/pixelpress/internal/domain"
	"github.com/hibiken/asynq"
)

const TypeProcessImage = "image:process"

var ErrInvalidPayload = errors.New("invalid process payload")

// ProcessImagePayload is the body of an image:process task. It carries a copy
// of the pipeline so the worker never has to read the job back.
type ProcessImagePayload struct {
	JobID       string                `json:"job_id"`
	UserID      string                `json:"user_id,omitempty"`
	SourceType  string                `json:"source_type"`
	WebhookURL  string                `json:"webhook_url,omitempty"`
	ObjectKey   string                `json:"object_key"`
	Pipeline    []domain.PipelineStep `json:"pipeline"`
	RequestedAt time.Time             `json:"requested_at"`

	// TraceContext holds propagation headers from the request that queued
	// the job.
	TraceContext map[string]string `json:"trace_context,omitempty"`
}

func (p ProcessImagePayload) Validate() error {
	switch {
	case p.JobID == "":
		return fmt.Errorf("%w: job_id is missing", ErrInvalidPayload)
	case p.SourceType == "":
		return fmt.Errorf("%w: source_type is missing", ErrInvalidPayload)
	case len(p.Pipeline) == 0:
		return fmt.Errorf("%w: pipeline is empty", ErrInvalidPayload)
	}
	for i, step := range p.Pipeline {
		if err := step.Validate(); err != nil {
			return fmt.Errorf("%w: pipeline[%d]: %v", ErrInvalidPayload, i, err)
		}
	}
	return nil
}

func NewProcessImageTask(payload ProcessImagePayload) (*asynq.Task, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal process payload: %w", err)
	}
	return asynq.NewTask(TypeProcessImage, body), nil
}

func ParseProcessImagePayload(task *asynq.Task) (ProcessImagePayload, error) {
	var payload ProcessImagePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ProcessImagePayload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := payload.Validate(); err != nil {
		return ProcessImagePayload{}, err
	}
	return payload, nil
}
