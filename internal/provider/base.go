package provider

import (
	"maps"
	"slices"
	"strings"
)

// BaseFetcher holds the model, status line and required query keys of a
// fetcher. Concrete fetchers embed it and add Fetch.
type BaseFetcher struct {
	model       ModelType
	description string
	required    []string
}

// NewBaseFetcher creates a base fetcher.
func NewBaseFetcher(model ModelType, desc string, required ...string) BaseFetcher {
	return BaseFetcher{model: model, description: desc, required: required}
}

func (b *BaseFetcher) ModelType() ModelType     { return b.model }
func (b *BaseFetcher) Description() string      { return b.description }
func (b *BaseFetcher) RequiredParams() []string { return b.required }

// BaseProvider keeps a provider's info, its fetchers and the resolved
// credential values. Concrete providers embed it and add Ping.
type BaseProvider struct {
	info        ProviderInfo
	fetchers    map[ModelType]Fetcher
	credentials map[string]string
}

// NewBaseProvider creates a base provider.
func NewBaseProvider(name, description, website string, creds []ProviderCredential) BaseProvider {
	return BaseProvider{
		info: ProviderInfo{
			Name:        name,
			Description: description,
			Website:     website,
			Credentials: creds,
		},
		fetchers:    make(map[ModelType]Fetcher),
		credentials: make(map[string]string),
	}
}

func (bp *BaseProvider) Info() ProviderInfo { return bp.info }

// Init resolves every declared credential: a supplied value wins, then the
// declared default. A required credential with neither is an error.
func (bp *BaseProvider) Init(values map[string]string) error {
	resolved := make(map[string]string, len(bp.info.Credentials))
	for _, cred := range bp.info.Credentials {
		val := strings.TrimSpace(values[cred.Name])
		if val == "" {
			val = cred.Default
		}
		if val == "" && cred.Required {
			return &ErrInvalidCredentials{
				Provider: bp.info.Name,
				Detail:   "missing required credential: " + cred.Name,
			}
		}
		resolved[cred.Name] = val
	}
	bp.credentials = resolved
	return nil
}

func (bp *BaseProvider) Fetcher(model ModelType) Fetcher {
	return bp.fetchers[model]
}

// SupportedModels returns the registered model types in sorted order.
func (bp *BaseProvider) SupportedModels() []ModelType {
	return slices.Sorted(maps.Keys(bp.fetchers))
}

// RegisterFetcher adds a fetcher to this provider.
func (bp *BaseProvider) RegisterFetcher(f Fetcher) {
	bp.fetchers[f.ModelType()] = f
	bp.info.Models = bp.SupportedModels()
}

// Credential returns a resolved credential value.
func (bp *BaseProvider) Credential(name string) string {
	return bp.credentials[name]
}
