package slack

import (
	"fmt"
	"strconv"
	"time"

	"github.com/theopenlane/mcpscout/internal/remote"
	"github.com/theopenlane/mcpscout/internal/scanner"
)

// ScanSummaryMessage builds the completion notice for a scan batch. It carries
// aggregate counts only, never domains or URLs.
func ScanSummaryMessage(seedSource string, s scanner.Summary) Message {
	text := fmt.Sprintf("mcpscout scan finished: %d domains, %d manifests", s.Domains, s.Manifests)

	return Message{
		Text: text,
		Blocks: []Block{
			header("Manifest scan finished"),
			fields(
				field("Seed source", seedSource),
				field("Domains", strconv.Itoa(s.Domains)),
				field("Manifests", strconv.Itoa(s.Manifests)),
				field("Anonymous access", strconv.Itoa(s.Anonymous)),
				field("Dangerous tools", strconv.Itoa(s.DangerousTools)),
				field("No TLS", strconv.Itoa(s.NoTLS)),
				field("DNS errors", strconv.Itoa(s.DNSErrors)),
				field("Fetch errors", strconv.Itoa(s.FetchErrors)),
				field("Written", strconv.Itoa(s.Written)),
				field("Elapsed", s.Elapsed.Round(time.Second).String()),
			),
		},
	}
}

// ProbeSummaryMessage builds the completion notice for a remote probe batch
func ProbeSummaryMessage(s remote.Summary) Message {
	text := fmt.Sprintf("mcpscout remote probe finished: %d endpoints, %d rpc ok", s.Endpoints, s.RPCOK)

	return Message{
		Text: text,
		Blocks: []Block{
			header("Remote probe finished"),
			fields(
				field("Endpoints", strconv.Itoa(s.Endpoints)),
				field("RPC ok", strconv.Itoa(s.RPCOK)),
				field("Anonymous", strconv.Itoa(s.Anonymous)),
				field("Auth required", strconv.Itoa(s.AuthRequired)),
				field("Dangerous endpoints", strconv.Itoa(s.DangerousEndpoints)),
				field("Transport errors", strconv.Itoa(s.TransportErrors)),
				field("Written", strconv.Itoa(s.Written)),
				field("Elapsed", s.Elapsed.Round(time.Second).String()),
			),
		},
	}
}

func header(text string) Block {
	return Block{Type: "header", Text: &TextObject{Type: "plain_text", Text: text}}
}

// fields lays out label/value pairs in a section block
func fields(objs ...TextObject) Block {
	return Block{Type: "section", Fields: objs}
}

func field(label, value string) TextObject {
	return TextObject{Type: "mrkdwn", Text: fmt.Sprintf("*%s*\n%s", label, value)}
}
