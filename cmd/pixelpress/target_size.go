package main

import (
	"fmt"
	"strconv"

	"github.com/dunamismax/pixelpress/internal/sizing"
	"github.com/spf13/cobra"
)

func newTargetSizeCommand() *cobra.Command {
	var minTarget int64

	cmd := &cobra.Command{
		Use:   "target-size <original bytes> <strength percent>",
		Short: "Print the compression target for a file size and strength",
		Long: "Print the byte budget the compressor aims for. Strength 0 keeps the " +
			"original size and strength 100 asks for the minimum target size.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			original, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("parse original size %q: %w", args[0], err)
			}
			strength, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("parse strength %q: %w", args[1], err)
			}

			target, err := sizing.Policy{MinTargetSizeBytes: minTarget}.TargetSizeBytes(original, strength)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), target)
			return err
		},
	}
	cmd.Flags().Int64Var(&minTarget, "min-target-bytes", sizing.DefaultMinTargetSizeBytes, "smallest target size in bytes")
	return cmd
}
