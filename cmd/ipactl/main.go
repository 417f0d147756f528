// Command ipactl is the operator tool for the private attribution core:
// it generates synthetic event data and runs the demo pipelines.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	verbose int
	quiet   bool

	log zerolog.Logger
)

func main() {
	root := &cobra.Command{
		Use:           "ipactl",
		Short:         "private attribution helper-party tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			log = newLogger()
		},
	}
	root.PersistentFlags().CountVarP(&verbose, "verbose", "v", "verbose mode (-v, -vv, -vvv)")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "silence all output")

	root.AddCommand(genEventsCmd())
	root.AddCommand(demoCmd())

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	level := zerolog.ErrorLevel
	switch {
	case quiet:
		level = zerolog.Disabled
	case verbose == 1:
		level = zerolog.WarnLevel
	case verbose == 2:
		level = zerolog.InfoLevel
	case verbose == 3:
		level = zerolog.DebugLevel
	case verbose > 3:
		level = zerolog.TraceLevel
	}
	return zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stderr
	})).Level(level).With().Timestamp().Logger()
}
