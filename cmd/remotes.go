package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/theopenlane/mcpscout/internal/remote"
	"github.com/theopenlane/mcpscout/internal/sink"
	"github.com/theopenlane/mcpscout/internal/slack"
	"github.com/theopenlane/mcpscout/internal/types"
)

// remotesCmd probes the endpoints advertised in a scan batch
var remotesCmd = &cobra.Command{
	Use:   "remotes",
	Short: "probe the remote endpoints advertised by discovered manifests",
	Run: func(cmd *cobra.Command, _ []string) {
		err := remotes(cmd.Context())
		cobra.CheckErr(err)
	},
}

func init() {
	rootCmd.AddCommand(remotesCmd)
	remotesCmd.Flags().String("run-dir", "", "batch directory holding scan_results.jsonl (defaults to today's batch under data_dir)")
	remotesCmd.Flags().String("in", "", "scan results path (overrides --run-dir)")
	remotesCmd.Flags().String("out", "", "output JSONL path (defaults to <run-dir>/remote_scan.jsonl)")
}

// remotes builds probe tasks from a scan batch and probes them
func remotes(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	runDir := k.String("run-dir")
	if runDir == "" {
		runDir = filepath.Dir(sink.BatchPath(cfg.DataDir, time.Now(), sink.ScanResultsFile))
	}

	inPath := k.String("in")
	if inPath == "" {
		inPath = filepath.Join(runDir, sink.ScanResultsFile)
	}

	outPath := k.String("out")
	if outPath == "" {
		outPath = filepath.Join(runDir, sink.RemoteResultsFile)
	}

	tasks, err := remote.LoadTasksFile(inPath)
	if err != nil {
		return err
	}

	log.Info().Int("endpoints", len(tasks)).Str("in", inPath).Str("out", outPath).Msg("loaded probe tasks")

	classifier, err := setupClassifier(cfg)
	if err != nil {
		return fmt.Errorf("setting up classifier: %w", err)
	}

	prober := setupProber(cfg, classifier)

	file, err := sink.OpenJSONL[types.RemoteProbeRecord](outPath)
	if err != nil {
		return err
	}

	nc, err := setupNATS(cfg)
	if err != nil {
		_ = file.Close()
		return err
	}

	sinks := []sink.Sink[types.RemoteProbeRecord]{file}

	if nc != nil {
		defer nc.Close()

		sinks = append(sinks, sink.NewNATS[types.RemoteProbeRecord](nc, cfg.NATS.RemoteSubject()))
	}

	out := sink.NewMulti(sinks...)

	summary, runErr := prober.Run(ctx, tasks, out)

	if err := out.Close(); err != nil {
		log.Error().Err(err).Msg("closing remote probe outputs")
	}

	notify(ctx, setupSlack(cfg), slack.ProbeSummaryMessage(summary))

	return runErr
}
