// Package provider defines the data-provider abstraction. A Provider owns
// one Fetcher per model type and a Registry routes each model to the
// single provider that serves it.
package provider

import (
	"context"
	"fmt"
	"time"
)

// ProviderCredential describes a setting a provider needs before it can be used.
type ProviderCredential struct {
	Name        string `json:"name"`        // e.g., "user_agent"
	Description string `json:"description"` // e.g., "Contact identity sent as User-Agent"
	Required    bool   `json:"required"`
	Default     string `json:"default,omitempty"` // used when no value is supplied
	EnvVar      string `json:"env_var"`           // e.g., "FACTSHEET_SEC_USER_AGENT"
}

// ProviderInfo holds metadata about a registered provider.
type ProviderInfo struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Website     string               `json:"website"`
	Credentials []ProviderCredential `json:"credentials"`
	Models      []ModelType          `json:"models"`
}

// Provider is the interface that all data providers must implement.
type Provider interface {
	// Info returns metadata about this provider.
	Info() ProviderInfo

	// Init validates and stores credentials. Called once before use.
	Init(credentials map[string]string) error

	// Fetcher returns the fetcher for the given model type, or nil if unsupported.
	Fetcher(model ModelType) Fetcher

	// SupportedModels returns all model types this provider can fetch.
	SupportedModels() []ModelType

	// Ping verifies the provider's connectivity.
	Ping(ctx context.Context) error
}

// QueryParams is the generic query parameter map passed to fetchers.
// Each fetcher defines which keys it requires/supports.
type QueryParams map[string]string

// QueryParamKey constants for commonly used query parameters.
const (
	ParamCIK   = "cik"   // ten-digit central index key
	ParamForm  = "form"  // form type, e.g. "10-K"
	ParamLimit = "limit" // max results
)

// FetchResult wraps a fetcher result with metadata.
type FetchResult struct {
	Provider  string    `json:"provider"`
	Model     ModelType `json:"model"`
	Data      any       `json:"data"` // typed per model, see ModelType
	FetchedAt time.Time `json:"fetched_at"`
}

// Fetcher is the interface for fetching a specific data type.
type Fetcher interface {
	ModelType() ModelType
	Description() string
	RequiredParams() []string

	// Fetch retrieves data for the given query parameters.
	Fetch(ctx context.Context, params QueryParams) (*FetchResult, error)
}

// ErrProviderNotFound is returned when a requested provider is not registered.
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return fmt.Sprintf("provider %q not found", e.Name)
}

// ErrModelNotSupported is returned when a provider doesn't support a model type.
type ErrModelNotSupported struct {
	Provider string
	Model    ModelType
}

func (e *ErrModelNotSupported) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("no provider serves model %q", e.Model)
	}
	return fmt.Sprintf("provider %q does not support model %q", e.Provider, e.Model)
}

// ErrModelClaimed is returned when a provider registers a model that
// another provider already serves.
type ErrModelClaimed struct {
	Model    ModelType
	Provider string
}

func (e *ErrModelClaimed) Error() string {
	return fmt.Sprintf("model %q is already served by provider %q", e.Model, e.Provider)
}

// ErrMissingParam is returned when a required query parameter is missing.
type ErrMissingParam struct {
	Param string
}

func (e *ErrMissingParam) Error() string {
	return fmt.Sprintf("missing required parameter %q", e.Param)
}

// ErrInvalidCredentials is returned when provider credentials are invalid.
type ErrInvalidCredentials struct {
	Provider string
	Detail   string
}

func (e *ErrInvalidCredentials) Error() string {
	return fmt.Sprintf("invalid credentials for provider %q: %s", e.Provider, e.Detail)
}

// ErrUnexpectedData is returned when a fetcher's result does not carry the
// data type its model promises.
type ErrUnexpectedData struct {
	Model ModelType
	Got   any
}

func (e *ErrUnexpectedData) Error() string {
	return fmt.Sprintf("model %q: unexpected data type %T", e.Model, e.Got)
}

// ValidateParams checks that all required parameters are present in params.
func ValidateParams(params QueryParams, required []string) error {
	for _, key := range required {
		if v, ok := params[key]; !ok || v == "" {
			return &ErrMissingParam{Param: key}
		}
	}
	return nil
}

// DataAs extracts the typed payload of a result.
func DataAs[T any](res *FetchResult) (T, error) {
	var zero T
	if res == nil {
		return zero, &ErrUnexpectedData{}
	}
	v, ok := res.Data.(T)
	if !ok {
		return zero, &ErrUnexpectedData{Model: res.Model, Got: res.Data}
	}
	return v, nil
}
