package remote

import (
	"context"
	"errors"
	"log"

	analytics "wastetrack-cloud/internal/analytics/domain"
)

// LocalSource loads the locally persisted snapshot.
type LocalSource interface {
	Snapshot(ctx context.Context) (analytics.Snapshot, bool, error)
}

// Fetcher retrieves a snapshot from a remote endpoint.
type Fetcher interface {
	FetchSnapshot(ctx context.Context) (analytics.Snapshot, error)
}

// Provider resolves the dashboard snapshot: local store first, then the
// remote endpoint, then a deterministic mock. It never returns an error to
// the caller; a dashboard read always produces a document.
type Provider struct {
	local  LocalSource
	remote Fetcher
	logger *log.Logger
}

// NewProvider constructs a provider. remote may be nil when no remote
// endpoint is configured.
func NewProvider(local LocalSource, remote Fetcher, logger *log.Logger) (*Provider, error) {
	if local == nil {
		return nil, errors.New("remote: nil local source")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Provider{local: local, remote: remote, logger: logger}, nil
}

// Resolve returns the best available snapshot.
func (p *Provider) Resolve(ctx context.Context) analytics.Snapshot {
	if p == nil {
		return MockSnapshot()
	}
	snapshot, ok, err := p.local.Snapshot(ctx)
	if err == nil && ok {
		return snapshot
	}
	if err != nil {
		p.logger.Printf("remote: local snapshot read failed: %v", err)
	}
	if p.remote != nil {
		snapshot, err := p.remote.FetchSnapshot(ctx)
		if err == nil {
			return snapshot
		}
		p.logger.Printf("remote: fetch failed, using mock data: %v", err)
	}
	return MockSnapshot()
}
