package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/theopenlane/mcpscout/config"
	"github.com/theopenlane/mcpscout/internal/classify"
	"github.com/theopenlane/mcpscout/internal/fetcher"
	"github.com/theopenlane/mcpscout/internal/remote"
	"github.com/theopenlane/mcpscout/internal/resolver"
	"github.com/theopenlane/mcpscout/internal/scanner"
	"github.com/theopenlane/mcpscout/internal/sink"
	"github.com/theopenlane/mcpscout/internal/slack"
)

// notifyTimeout bounds the batch completion notification
const notifyTimeout = 15 * time.Second

// setupClassifier builds the classifier from the configured rule file or the built-in rules
func setupClassifier(cfg *config.Config) (*classify.Classifier, error) {
	rules := classify.DefaultRules()

	if cfg.Classify.RulesFile != "" {
		loaded, err := classify.LoadRules(cfg.Classify.RulesFile)
		if err != nil {
			return nil, err
		}

		rules = loaded
	}

	c, err := classify.New(rules)
	if err != nil {
		return nil, err
	}

	log.Info().Str("rules_version", c.Version()).Msg("classifier configured")

	return c, nil
}

// setupResolver initializes the host resolver from config
func setupResolver(cfg *config.Config) *resolver.Resolver {
	return resolver.New(
		resolver.WithTimeout(cfg.Resolver.Timeout),
		resolver.WithWWWFallback(cfg.Resolver.WWWFallback),
		resolver.WithServers(cfg.Resolver.Servers),
		resolver.WithCacheTTL(cfg.Resolver.CacheTTL),
	)
}

// setupFetcher initializes the manifest fetcher, dialing addresses the resolver already found
func setupFetcher(cfg *config.Config, res *resolver.Resolver) *fetcher.Fetcher {
	return fetcher.New(
		fetcher.WithTimeout(cfg.Fetcher.Timeout),
		fetcher.WithMaxBodyBytes(cfg.Fetcher.MaxBodyBytes),
		fetcher.WithConnLimits(cfg.Fetcher.MaxConnsPerHost, cfg.Fetcher.MaxIdleConns),
		fetcher.WithUserAgent(cfg.Fetcher.UserAgent),
		fetcher.WithAddrLookup(res.Cached),
	)
}

// setupScanner wires resolver, fetcher and classifier into the scan orchestrator.
// The returned cleanup releases the fetcher's idle connections.
func setupScanner(cfg *config.Config, c *classify.Classifier) (*scanner.Scanner, func(), error) {
	res := setupResolver(cfg)
	f := setupFetcher(cfg, res)

	s, err := scanner.New(res, f, c,
		scanner.WithResolveConcurrency(cfg.Scanner.ResolveConcurrency),
		scanner.WithFetchConcurrency(cfg.Scanner.FetchConcurrency),
		scanner.WithFlushEvery(cfg.Scanner.FlushEvery),
	)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("setting up scanner: %w", err)
	}

	return s, f.Close, nil
}

// setupProber initializes the remote capability prober from config
func setupProber(cfg *config.Config, c *classify.Classifier) *remote.Prober {
	opts := []remote.Option{
		remote.WithConcurrency(cfg.Remote.Concurrency),
		remote.WithFlushEvery(cfg.Remote.FlushEvery),
		remote.WithTimeout(cfg.Remote.Timeout),
		remote.WithMaxBodyBytes(cfg.Remote.MaxBodyBytes),
		remote.WithDangerousNameLimit(cfg.Remote.DangerousNameLimit),
	}

	if cfg.Fetcher.UserAgent != "" {
		opts = append(opts, remote.WithUserAgent(cfg.Fetcher.UserAgent))
	}

	return remote.NewProber(c, opts...)
}

// setupNATS connects the record mirror, returning nil when unconfigured
func setupNATS(cfg *config.Config) (*nats.Conn, error) {
	if cfg.NATS.URL == "" {
		log.Debug().Msg("nats mirror not configured, skipping")
		return nil, nil
	}

	nc, err := sink.ConnectNATS(cfg.NATS.URL, cfg.NATS.ClientName)
	if err != nil {
		return nil, err
	}

	log.Info().Str("subject_prefix", cfg.NATS.SubjectPrefix).Msg("nats mirror configured")

	return nc, nil
}

// setupSlack initializes the Slack webhook client from config, returning nil when unconfigured
func setupSlack(cfg *config.Config) *slack.Client {
	if cfg.Slack.WebhookURL == "" {
		log.Debug().Msg("slack notifications not configured, skipping")
		return nil
	}

	httpClient := cleanhttp.DefaultClient()
	httpClient.Timeout = cfg.Slack.RequestTimeout

	client, err := slack.New(cfg.Slack.WebhookURL, slack.WithHTTPClient(httpClient))
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize slack client")
		return nil
	}

	log.Info().Msg("slack notifications configured")

	return client
}

// notify posts a batch summary, logging instead of failing the run
func notify(ctx context.Context, client *slack.Client, msg slack.Message) {
	if client == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := client.Send(ctx, msg); err != nil {
		log.Error().Err(err).Msg("slack notification failed")
	}
}
