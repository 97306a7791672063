package main

import (
	"os"

	"github.com/dunamismax/pixelpress/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		logLevel string
		logger   zerolog.Logger
	)

	root := &cobra.Command{
		Use:          "pixelpress",
		Short:        "Compress, sharpen and compare images from the command line",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logger = logging.NewWithWriter(cmd.ErrOrStderr(), "pixelpress", logging.Config{Level: logLevel, Pretty: true})
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newProcessCommand(func() zerolog.Logger { return logger }),
		newTargetSizeCommand(),
	)
	return root
}
