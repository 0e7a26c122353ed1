package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/theopenlane/mcpscout/internal/domain"
	"github.com/theopenlane/mcpscout/internal/scanner"
	"github.com/theopenlane/mcpscout/internal/sink"
	"github.com/theopenlane/mcpscout/internal/slack"
	"github.com/theopenlane/mcpscout/internal/types"
)

// scanCmd probes a domain list for well-known manifests
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "scan a newline-delimited domain list for MCP manifests",
	Run: func(cmd *cobra.Command, _ []string) {
		err := scan(cmd.Context())
		cobra.CheckErr(err)
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().String("domains", "", "path to the newline-delimited domain list (required)")
	scanCmd.Flags().String("seed-source", "", "tag recorded on every record (defaults to scanner.seed_source)")
	scanCmd.Flags().String("out", "", "output JSONL path (defaults to <data_dir>/runs/<date>/scan_results.jsonl)")

	_ = scanCmd.MarkFlagRequired("domains")
}

// scan runs one batch over the domain list
func scan(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	domains, err := domain.LoadListFile(k.String("domains"))
	if err != nil {
		return err
	}

	domains = domain.Dedupe(domains)

	classifier, err := setupClassifier(cfg)
	if err != nil {
		return fmt.Errorf("setting up classifier: %w", err)
	}

	s, cleanup, err := setupScanner(cfg, classifier)
	if err != nil {
		return err
	}
	defer cleanup()

	batch := scanner.Batch{
		RunTS:      time.Now().UTC(),
		SeedSource: cfg.Scanner.SeedSource,
	}

	if seed := k.String("seed-source"); seed != "" {
		batch.SeedSource = seed
	}

	outPath := k.String("out")
	if outPath == "" {
		outPath = sink.BatchPath(cfg.DataDir, batch.RunTS, sink.ScanResultsFile)
	}

	file, err := sink.OpenJSONL[types.ScanRecord](outPath)
	if err != nil {
		return err
	}

	nc, err := setupNATS(cfg)
	if err != nil {
		_ = file.Close()
		return err
	}

	sinks := []sink.Sink[types.ScanRecord]{file}

	if nc != nil {
		defer nc.Close()

		sinks = append(sinks, sink.NewNATS[types.ScanRecord](nc, cfg.NATS.ScanSubject()))
	}

	out := sink.NewMulti(sinks...)

	log.Info().Str("out", outPath).Msg("writing scan records")

	summary, runErr := s.Run(ctx, batch, domains, out)

	if err := out.Close(); err != nil {
		log.Error().Err(err).Msg("closing scan outputs")
	}

	notify(ctx, setupSlack(cfg), slack.ScanSummaryMessage(batch.SeedSource, summary))

	return runErr
}
