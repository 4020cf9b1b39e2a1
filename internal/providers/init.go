// Package providers initializes and registers the concrete data providers
// with a provider registry.
package providers

import (
	"github.com/seenimoa/factsheet/internal/config"
	"github.com/seenimoa/factsheet/internal/provider"
	"github.com/seenimoa/factsheet/internal/providers/sec"
)

// NewRegistry returns a registry with every available provider registered.
func NewRegistry(cfg config.SECConfig) (*provider.Registry, error) {
	reg := provider.NewRegistry()
	if err := RegisterAllTo(reg, cfg); err != nil {
		return nil, err
	}
	return reg, nil
}

// RegisterAllTo creates, initializes and registers all available providers.
func RegisterAllTo(reg *provider.Registry, cfg config.SECConfig) error {
	// --- SEC EDGAR (free, contact identity recommended) ---
	sp := sec.New(sec.Options{
		DataURL:   cfg.DataURL,
		WWWURL:    cfg.WWWURL,
		Timeout:   cfg.Timeout(),
		RateLimit: cfg.RateLimit,
		FeedCount: cfg.FeedCount,
	})
	if err := sp.Init(map[string]string{sec.CredUserAgent: cfg.UserAgent}); err != nil {
		return err
	}
	return reg.Register(sp)
}
