package scanner

import (
	"context"

	"github.com/theopenlane/mcpscout/internal/fetcher"
	"github.com/theopenlane/mcpscout/internal/resolver"
	"github.com/theopenlane/mcpscout/internal/types"
)

// Interface defines the contract for single-domain scanning used by the api
type Interface interface {
	ScanDomain(ctx context.Context, batch Batch, domain string) types.ScanRecord
}

// HostResolver resolves a domain to a usable hostname
type HostResolver interface {
	Resolve(ctx context.Context, domain string) (*resolver.Resolution, error)
}

// ManifestFetcher fetches the manifest of a resolved host
type ManifestFetcher interface {
	Fetch(ctx context.Context, host string) *fetcher.Result
}

// hostForgetter is implemented by resolvers that cache addresses for the fetcher
type hostForgetter interface {
	Forget(host string)
}
