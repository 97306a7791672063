package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	JobStatusCreated    = "created"
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusSucceeded  = "succeeded"
	JobStatusFailed     = "failed"

	SourceTypeLocalFile   = "local_file"
	SourceTypeS3Presigned = "s3_presigned"

	ActionCompress         = "compress"
	ActionSharpen          = "sharpen"
	ActionRemoveBackground = "remove_background"
	ActionCompare          = "compare"
)

type CreateJobRequest struct {
	SourceType string         `json:"source_type"`
	WebhookURL string         `json:"webhook_url,omitempty"`
	ObjectKey  string         `json:"object_key,omitempty"`
	Pipeline   []PipelineStep `json:"pipeline"`
}

// PipelineStep is one action applied to the output of the previous step.
type PipelineStep struct {
	ID           string   `json:"id"`
	Action       string   `json:"action"`
	Strength     float64  `json:"strength,omitempty"`
	MaxDimension int      `json:"max_dimension,omitempty"`
	Format       string   `json:"format,omitempty"`
	Quality      int      `json:"quality,omitempty"`
	Compare      *Compare `json:"compare,omitempty"`
}

// Compare renders the source and the current image split at a vertical line.
type Compare struct {
	Split         float64 `json:"split"`
	OriginalLabel string  `json:"original_label,omitempty"`
	ModifiedLabel string  `json:"modified_label,omitempty"`
}

type Job struct {
	ID         string
	UserID     string
	Status     string
	SourceType string
	WebhookURL string
	Pipeline   []PipelineStep
	ObjectKey  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (r CreateJobRequest) Validate() error {
	sourceType := strings.ToLower(strings.TrimSpace(r.SourceType))
	if sourceType == "" {
		return errors.New("source_type is required")
	}
	if sourceType != SourceTypeLocalFile && sourceType != SourceTypeS3Presigned {
		return fmt.Errorf("unsupported source_type: %s", r.SourceType)
	}
	if sourceType == SourceTypeLocalFile && strings.TrimSpace(r.ObjectKey) == "" {
		return errors.New("object_key is required for source_type=local_file")
	}
	if len(r.Pipeline) == 0 {
		return errors.New("pipeline must contain at least one step")
	}

	seen := make(map[string]struct{}, len(r.Pipeline))
	for i, step := range r.Pipeline {
		if err := step.Validate(); err != nil {
			return fmt.Errorf("pipeline[%d]: %w", i, err)
		}
		if _, dup := seen[step.ID]; dup {
			return fmt.Errorf("pipeline[%d].id %q is duplicated", i, step.ID)
		}
		seen[step.ID] = struct{}{}
	}
	return nil
}

func (s PipelineStep) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return errors.New("id is required")
	}

	switch NormalizeAction(s.Action) {
	case "":
		return errors.New("action is required")
	case ActionCompress:
		if math.IsNaN(s.Strength) || math.IsInf(s.Strength, 0) {
			return errors.New("strength must be finite")
		}
		if s.MaxDimension < 0 {
			return errors.New("max_dimension must not be negative")
		}
	case ActionSharpen, ActionRemoveBackground:
	case ActionCompare:
		if s.Compare != nil && (s.Compare.Split < 0 || s.Compare.Split > 100) {
			return errors.New("compare.split must be within 0-100")
		}
	default:
		return fmt.Errorf("unsupported action: %s", s.Action)
	}

	if s.Quality < 0 || s.Quality > 100 {
		return errors.New("quality must be within 0-100")
	}
	return nil
}

func NormalizeAction(action string) string {
	return strings.ToLower(strings.TrimSpace(action))
}
