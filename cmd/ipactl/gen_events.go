package main

import (
	"bufio"
	"os"

	"github.com/spf13/cobra"

	"github.com/attributelabs/private-attribution/pkg/events"
)

func genEventsCmd() *cobra.Command {
	var (
		count       uint32
		epoch       uint8
		secretShare bool
		seed        uint64
		seedSet     bool
		outPath     string
	)

	cmd := &cobra.Command{
		Use:   "gen-events",
		Short: "generate synthetic source and trigger events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			seedSet = cmd.Flags().Changed("seed")

			out := os.Stdout
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			w := bufio.NewWriter(out)
			defer w.Flush()

			cfg := events.GeneratorConfig{
				Count:       count,
				Epoch:       epoch,
				SecretShare: secretShare,
			}
			if seedSet {
				cfg.Seed = &seed
			}
			totals, err := events.Generate(cfg, w)
			if err != nil {
				return err
			}
			log.Info().
				Uint32("events", count).
				Uint32("impressions", totals.Impressions).
				Uint32("conversions", totals.Conversions).
				Msg("generation done")
			return nil
		},
	}

	cmd.Flags().Uint32VarP(&count, "count", "n", 1000, "number of events to generate")
	cmd.Flags().Uint8Var(&epoch, "epoch", 0, "epoch stamped on every event")
	cmd.Flags().BoolVar(&secretShare, "secret-share", false, "emit secret-shared events")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "seed for deterministic output")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	return cmd
}
