package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateJobRequestValidate(t *testing.T) {
	compress := PipelineStep{ID: "small", Action: ActionCompress, Strength: 60}

	tests := []struct {
		name    string
		req     CreateJobRequest
		wantErr string
	}{
		{
			name: "valid presigned",
			req: CreateJobRequest{
				SourceType: SourceTypeS3Presigned,
				Pipeline: []PipelineStep{
					compress,
					{ID: "crisp", Action: "Sharpen"},
					{ID: "side_by_side", Action: ActionCompare, Compare: &Compare{Split: 30}},
				},
			},
		},
		{name: "empty", req: CreateJobRequest{}, wantErr: "source_type is required"},
		{
			name:    "local file without object key",
			req:     CreateJobRequest{SourceType: SourceTypeLocalFile, Pipeline: []PipelineStep{compress}},
			wantErr: "object_key is required",
		},
		{
			name:    "unsupported source type",
			req:     CreateJobRequest{SourceType: "http_url", Pipeline: []PipelineStep{compress}},
			wantErr: "unsupported source_type",
		},
		{
			name:    "no steps",
			req:     CreateJobRequest{SourceType: SourceTypeS3Presigned},
			wantErr: "at least one step",
		},
		{
			name: "unknown action",
			req: CreateJobRequest{
				SourceType: SourceTypeS3Presigned,
				Pipeline:   []PipelineStep{{ID: "wm", Action: "watermark"}},
			},
			wantErr: "unsupported action",
		},
		{
			name: "duplicate ids",
			req: CreateJobRequest{
				SourceType: SourceTypeS3Presigned,
				Pipeline:   []PipelineStep{compress, compress},
			},
			wantErr: "duplicated",
		},
		{
			name: "split out of range",
			req: CreateJobRequest{
				SourceType: SourceTypeS3Presigned,
				Pipeline:   []PipelineStep{{ID: "cmp", Action: ActionCompare, Compare: &Compare{Split: 120}}},
			},
			wantErr: "compare.split",
		},
		{
			name: "non-finite strength",
			req: CreateJobRequest{
				SourceType: SourceTypeS3Presigned,
				Pipeline:   []PipelineStep{{ID: "c", Action: ActionCompress, Strength: math.Inf(1)}},
			},
			wantErr: "strength must be finite",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
