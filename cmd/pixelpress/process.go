package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/dunamismax/pixelpress/internal/bgremove"
	"github.com/dunamismax/pixelpress/internal/compress"
	"github.com/dunamismax/pixelpress/internal/domain"
	"github.com/dunamismax/pixelpress/internal/id"
	"github.com/dunamismax/pixelpress/internal/pipeline"
	"github.com/dunamismax/pixelpress/internal/sizing"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type processFlags struct {
	strength     float64
	maxDimension int
	minTarget    int64
	format       string
	sharpen      bool
	removeBG     string
	compare      bool
	split        float64
	outDir       string
	workers      int
}

func newProcessCommand(logger func() zerolog.Logger) *cobra.Command {
	var f processFlags

	cmd := &cobra.Command{
		Use:   "process <image path>",
		Short: "Run the compression pipeline on a local image",
		Long: "Compress an image toward the target size for --strength, then optionally " +
			"sharpen it, remove its background and render a comparison. Every step " +
			"writes its own file under --out and a JSON summary is printed.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := f.steps()
			if err != nil {
				return err
			}

			opts := pipeline.Options{
				Compressor:   compress.NewJPEGCompressor(),
				Sizing:       sizing.Policy{MinTargetSizeBytes: f.minTarget},
				MaxDimension: f.maxDimension,
				OutputFormat: f.format,
				Workers:      f.workers,
			}
			if f.removeBG != "" {
				opts.Remover = bgremove.NewClient(bgremove.Config{Endpoint: f.removeBG})
			}

			if err := pipeline.Startup(); err != nil {
				return fmt.Errorf("start image runtime: %w", err)
			}
			defer pipeline.Shutdown()

			processor, err := pipeline.NewLocalProcessor(f.outDir, opts)
			if err != nil {
				return err
			}

			inputPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve input path: %w", err)
			}

			jobID := id.New()
			log := logger().With().Str("job_id", jobID).Logger()
			log.Info().Str("input", inputPath).Int("steps", len(steps)).Msg("processing")

			result, err := processor.Process(cmd.Context(), pipeline.Request{
				JobID:      jobID,
				SourceType: domain.SourceTypeLocalFile,
				ObjectKey:  inputPath,
				Pipeline:   steps,
			})
			if err != nil {
				return err
			}
			log.Info().Int("outputs", len(result.Outputs)).Msg("done")

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"job_id":       jobID,
				"source_bytes": result.SourceBytes,
				"outputs":      result.Outputs,
			})
		},
	}

	flags := cmd.Flags()
	flags.Float64VarP(&f.strength, "strength", "s", 50, "compression strength percent (0-100)")
	flags.IntVar(&f.maxDimension, "max-dimension", compress.DefaultMaxDimension, "longest edge after compression")
	flags.Int64Var(&f.minTarget, "min-target-bytes", sizing.DefaultMinTargetSizeBytes, "smallest target size in bytes")
	flags.StringVarP(&f.format, "format", "f", pipeline.DefaultOutputFormat, "output format (jpeg, png, webp)")
	flags.BoolVar(&f.sharpen, "sharpen", false, "sharpen the compressed image")
	flags.StringVar(&f.removeBG, "remove-bg", "", "background removal endpoint; enables the step when set")
	flags.BoolVar(&f.compare, "compare", false, "render an original/compressed comparison")
	flags.Float64Var(&f.split, "split", 50, "comparison split position percent")
	flags.StringVarP(&f.outDir, "out", "o", "out", "output directory")
	flags.IntVar(&f.workers, "workers", 0, "sharpen workers; 0 uses every CPU")
	return cmd
}

func (f processFlags) steps() ([]domain.PipelineStep, error) {
	steps := []domain.PipelineStep{{
		ID:           "compressed",
		Action:       domain.ActionCompress,
		Strength:     f.strength,
		MaxDimension: f.maxDimension,
	}}
	if f.sharpen {
		steps = append(steps, domain.PipelineStep{ID: "sharpened", Action: domain.ActionSharpen})
	}
	if f.removeBG != "" {
		steps = append(steps, domain.PipelineStep{ID: "cutout", Action: domain.ActionRemoveBackground})
	}
	if f.compare {
		steps = append(steps, domain.PipelineStep{
			ID:      "compare",
			Action:  domain.ActionCompare,
			Compare: &domain.Compare{Split: f.split},
		})
	}

	for i, step := range steps {
		if err := step.Validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}
	return steps, nil
}
