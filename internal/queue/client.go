package queue

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
)

const (
	defaultMaxRetry    = 5
	defaultBaseTimeout = time.Minute
	defaultStepTimeout = 45 * time.Second
)

type Client struct {
	client      *asynq.Client
	queue       string
	maxRetry    int
	baseTimeout time.Duration
	stepTimeout time.Duration
}

func NewClient(redisOpt asynq.RedisClientOpt, queueName string) *Client {
	return &Client{
		client:      asynq.NewClient(redisOpt),
		queue:       queueName,
		maxRetry:    defaultMaxRetry,
		baseTimeout: defaultBaseTimeout,
		stepTimeout: defaultStepTimeout,
	}
}

// EnqueueProcessImage uses the job id as the task id so a job cannot be
// queued twice while a previous task for it is still pending.
func (c *Client) EnqueueProcessImage(ctx context.Context, payload ProcessImagePayload) (*asynq.TaskInfo, error) {
	task, err := NewProcessImageTask(payload)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, c.options(payload)...)
}

func (c *Client) options(payload ProcessImagePayload) []asynq.Option {
	return []asynq.Option{
		asynq.Queue(c.queue),
		asynq.TaskID(payload.JobID),
		asynq.MaxRetry(c.maxRetry),
		asynq.Timeout(c.timeoutFor(len(payload.Pipeline))),
	}
}

// timeoutFor grows with the pipeline since every step decodes and re-encodes
// the image.
func (c *Client) timeoutFor(steps int) time.Duration {
	return c.baseTimeout + time.Duration(max(steps, 1))*c.stepTimeout
}

func (c *Client) Close() error {
	return c.client.Close()
}
