package queue

import (
	"testing"
	"time"

	"github.com/dunamismax/pixelpress/internal/domain"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessImageTaskRoundTrip(t *testing.T) {
	payload := ProcessImagePayload{
		JobID:      "job-123",
		UserID:     "user-7",
		SourceType: domain.SourceTypeS3Presigned,
		ObjectKey:  "uploads/job-123/source",
		Pipeline: []domain.PipelineStep{
			{ID: "small", Action: domain.ActionCompress, Strength: 75, MaxDimension: 800},
			{ID: "crisp", Action: domain.ActionSharpen},
		},
		RequestedAt: time.Now().UTC(),
	}

	task, err := NewProcessImageTask(payload)
	require.NoError(t, err)
	assert.Equal(t, TypeProcessImage, task.Type())

	parsed, err := ParseProcessImagePayload(task)
	require.NoError(t, err)
	assert.Equal(t, payload.JobID, parsed.JobID)
	assert.Equal(t, payload.UserID, parsed.UserID)
	require.Len(t, parsed.Pipeline, 2)
	assert.Equal(t, 75.0, parsed.Pipeline[0].Strength)
	assert.Equal(t, 800, parsed.Pipeline[0].MaxDimension)
}

func TestParseProcessImagePayloadRejectsGarbage(t *testing.T) {
	_, err := ParseProcessImagePayload(asynq.NewTask(TypeProcessImage, []byte("{")))
	require.Error(t, err)

	_, err = ParseProcessImagePayload(asynq.NewTask(TypeProcessImage, []byte(`{"source_type":"local_file"}`)))
	require.ErrorIs(t, err, ErrInvalidPayload)
}

func TestNewProcessImageTaskValidates(t *testing.T) {
	_, err := NewProcessImageTask(ProcessImagePayload{JobID: "job-1", SourceType: domain.SourceTypeLocalFile})
	require.ErrorIs(t, err, ErrInvalidPayload)

	_, err = NewProcessImageTask(ProcessImagePayload{
		JobID:      "job-1",
		SourceType: domain.SourceTypeLocalFile,
		Pipeline:   []domain.PipelineStep{{ID: "x", Action: "resize"}},
	})
	require.ErrorIs(t, err, ErrInvalidPayload)
	assert.Contains(t, err.Error(), "pipeline[0]")
}

func TestTimeoutGrowsWithSteps(t *testing.T) {
	c := &Client{baseTimeout: time.Minute, stepTimeout: 30 * time.Second}
	assert.Equal(t, 90*time.Second, c.timeoutFor(0))
	assert.Equal(t, 90*time.Second, c.timeoutFor(1))
	assert.Equal(t, 150*time.Second, c.timeoutFor(3))
}
