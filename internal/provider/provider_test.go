package provider

import (
	"context"
	"errors"
	"testing"
	"time"
)

// mockFetcher implements the Fetcher interface for testing.
type mockFetcher struct {
	BaseFetcher
	fetchFn func(ctx context.Context, params QueryParams) (*FetchResult, error)
}

func newMockFetcher(model ModelType, required ...string) *mockFetcher {
	return &mockFetcher{
		BaseFetcher: NewBaseFetcher(model, "mock fetcher for "+string(model), required...),
	}
}

func (m *mockFetcher) Fetch(ctx context.Context, params QueryParams) (*FetchResult, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, params)
	}
	return &FetchResult{Data: "mock-data"}, nil
}

// mockProvider implements the Provider interface for testing.
type mockProvider struct {
	BaseProvider
}

func (m *mockProvider) Ping(ctx context.Context) error { return nil }

func newMockProvider(name string, models ...ModelType) *mockProvider {
	mp := &mockProvider{
		BaseProvider: NewBaseProvider(name, "Mock "+name, "https://example.com", nil),
	}
	for _, m := range models {
		mp.RegisterFetcher(newMockFetcher(m, ParamCIK))
	}
	return mp
}

// ── Registry ──

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	p := newMockProvider("test-provider", ModelCompanyFacts, ModelFilingFeed)

	if err := p.Init(nil); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := reg.Register(p); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got, err := reg.Get("test-provider")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Info().Name != "test-provider" {
		t.Errorf("expected name test-provider, got %s", got.Info().Name)
	}
	if len(got.Info().Models) != 2 {
		t.Errorf("expected 2 models in info, got %v", got.Info().Models)
	}
}

func TestRegistryRegisterEmptyName(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(newMockProvider("")); err == nil {
		t.Fatal("expected error for empty provider name")
	}
}

func TestRegistryGetNotFound(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Get("nonexistent")
	var nf *ErrProviderNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrProviderNotFound, got %T", err)
	}
	if nf.Name != "nonexistent" {
		t.Errorf("Name = %q", nf.Name)
	}
}

func TestRegistryListSorted(t *testing.T) {
	reg := NewRegistry()
	reg.Register(newMockProvider("zeta", ModelCompanyFacts))
	reg.Register(newMockProvider("alpha", ModelCompanyProfile))

	infos := reg.List()
	if len(infos) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(infos))
	}
	if infos[0].Name != "alpha" || infos[1].Name != "zeta" {
		t.Errorf("unexpected order: %s, %s", infos[0].Name, infos[1].Name)
	}
}

func TestRegistryRejectsSecondProviderForModel(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(newMockProvider("first", ModelCompanyFacts)); err != nil {
		t.Fatalf("Register: %v", err)
	}

	err := reg.Register(newMockProvider("second", ModelCompanyProfile, ModelCompanyFacts))
	var mc *ErrModelClaimed
	if !errors.As(err, &mc) {
		t.Fatalf("expected ErrModelClaimed, got %v", err)
	}
	if mc.Model != ModelCompanyFacts || mc.Provider != "first" {
		t.Errorf("claim = %+v", mc)
	}
	if _, err := reg.Get("second"); err == nil {
		t.Error("rejected provider should not be registered")
	}
	if _, err := reg.Fetch(context.Background(), ModelCompanyProfile, QueryParams{ParamCIK: "1"}); err == nil {
		t.Error("rejected provider's models should not be routed")
	}
}

func TestRegistryReRegisterReplacesRoutes(t *testing.T) {
	reg := NewRegistry()
	reg.Register(newMockProvider("sec", ModelCompanyFacts, ModelFilingFeed))
	if err := reg.Register(newMockProvider("sec", ModelCompanyFacts)); err != nil {
		t.Fatalf("re-register: %v", err)
	}

	routes := reg.Routes()
	if len(routes) != 1 || routes[0].Model != ModelCompanyFacts {
		t.Errorf("routes = %+v", routes)
	}
}

func TestRegistryRoutes(t *testing.T) {
	reg := NewRegistry()
	reg.Register(newMockProvider("sec", ModelFilingFeed, ModelCompanyFacts))

	routes := reg.Routes()
	if len(routes) != 2 {
		t.Fatalf("routes = %+v", routes)
	}
	if routes[0].Model != ModelCompanyFacts || routes[1].Model != ModelFilingFeed {
		t.Errorf("routes not sorted: %s, %s", routes[0].Model, routes[1].Model)
	}
	for _, rt := range routes {
		if rt.Provider != "sec" {
			t.Errorf("%s served by %q", rt.Model, rt.Provider)
		}
		if rt.Description != "mock fetcher for "+string(rt.Model) {
			t.Errorf("%s description = %q", rt.Model, rt.Description)
		}
	}
}

func TestRegistryFetch(t *testing.T) {
	reg := NewRegistry()
	reg.Register(newMockProvider("sec", ModelCompanyFacts))

	res, err := reg.Fetch(context.Background(), ModelCompanyFacts, QueryParams{ParamCIK: "0001318605"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if res.Provider != "sec" {
		t.Errorf("Provider = %q", res.Provider)
	}
	if res.Model != ModelCompanyFacts {
		t.Errorf("Model = %q", res.Model)
	}
	if res.FetchedAt.IsZero() {
		t.Error("FetchedAt not set")
	}
}

func TestRegistryFetchMissingParam(t *testing.T) {
	reg := NewRegistry()
	reg.Register(newMockProvider("sec", ModelCompanyFacts))

	_, err := reg.Fetch(context.Background(), ModelCompanyFacts, QueryParams{})
	var mp *ErrMissingParam
	if !errors.As(err, &mp) {
		t.Fatalf("expected ErrMissingParam, got %v", err)
	}
	if mp.Param != ParamCIK {
		t.Errorf("Param = %q", mp.Param)
	}
}

func TestRegistryFetchUnsupportedModel(t *testing.T) {
	reg := NewRegistry()
	reg.Register(newMockProvider("sec", ModelCompanyFacts))

	_, err := reg.Fetch(context.Background(), ModelFilingFeed, QueryParams{ParamCIK: "1"})
	var ns *ErrModelNotSupported
	if !errors.As(err, &ns) {
		t.Fatalf("expected ErrModelNotSupported, got %v", err)
	}
	if ns.Model != ModelFilingFeed || ns.Provider != "" {
		t.Errorf("err = %+v", ns)
	}
}

func TestRegistryFetchEmpty(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Fetch(context.Background(), ModelCompanyFacts, QueryParams{ParamCIK: "1"})
	var ns *ErrModelNotSupported
	if !errors.As(err, &ns) {
		t.Fatalf("expected ErrModelNotSupported, got %v", err)
	}
}

func TestRegistryFetchWrapsError(t *testing.T) {
	cause := errors.New("boom")
	p := &mockProvider{BaseProvider: NewBaseProvider("sec", "", "", nil)}
	f := newMockFetcher(ModelCompanyFacts)
	f.fetchFn = func(ctx context.Context, params QueryParams) (*FetchResult, error) {
		return nil, cause
	}
	p.RegisterFetcher(f)

	reg := NewRegistry()
	reg.Register(p)

	_, err := reg.Fetch(context.Background(), ModelCompanyFacts, QueryParams{})
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

// ── BaseProvider ──

func TestBaseProviderInitRequiresCredential(t *testing.T) {
	bp := NewBaseProvider("sec", "", "", []ProviderCredential{
		{Name: "user_agent", Required: true},
	})

	err := bp.Init(map[string]string{"user_agent": "   "})
	var ic *ErrInvalidCredentials
	if !errors.As(err, &ic) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if err := bp.Init(map[string]string{"user_agent": " a b@c.d "}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if got := bp.Credential("user_agent"); got != "a b@c.d" {
		t.Errorf("credential = %q", got)
	}
}

func TestBaseProviderInitDefaults(t *testing.T) {
	bp := NewBaseProvider("sec", "", "", []ProviderCredential{
		{Name: "user_agent", Default: "factsheet/test"},
		{Name: "token", Required: true, Default: "anon"},
	})

	if err := bp.Init(nil); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got := bp.Credential("user_agent"); got != "factsheet/test" {
		t.Errorf("user_agent = %q", got)
	}
	if got := bp.Credential("token"); got != "anon" {
		t.Errorf("token = %q", got)
	}
	if got := bp.Credential("undeclared"); got != "" {
		t.Errorf("undeclared credential = %q", got)
	}

	if err := bp.Init(map[string]string{"user_agent": "Jane jane@example.com"}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got := bp.Credential("user_agent"); got != "Jane jane@example.com" {
		t.Errorf("supplied value should win, got %q", got)
	}
}

func TestBaseProviderSupportedModelsSorted(t *testing.T) {
	p := newMockProvider("sec", ModelFilingFeed, ModelCompanyProfile, ModelCompanyFacts)
	want := []ModelType{ModelCompanyFacts, ModelCompanyProfile, ModelFilingFeed}
	got := p.SupportedModels()
	if len(got) != len(want) {
		t.Fatalf("models = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("models[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if len(p.Info().Models) != 3 {
		t.Errorf("info models = %v", p.Info().Models)
	}
}

// ── Helpers ──

func TestValidateParams(t *testing.T) {
	if err := ValidateParams(QueryParams{ParamCIK: "1"}, []string{ParamCIK}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateParams(QueryParams{ParamCIK: ""}, []string{ParamCIK}); err == nil {
		t.Error("expected error for empty value")
	}
}

func TestDataAs(t *testing.T) {
	res := &FetchResult{Model: ModelCompanyFacts, Data: 42, FetchedAt: time.Now()}

	n, err := DataAs[int](res)
	if err != nil || n != 42 {
		t.Errorf("DataAs[int] = %d, %v", n, err)
	}

	_, err = DataAs[string](res)
	var ud *ErrUnexpectedData
	if !errors.As(err, &ud) {
		t.Fatalf("expected ErrUnexpectedData, got %v", err)
	}

	if _, err := DataAs[int](nil); err == nil {
		t.Error("expected error for nil result")
	}
}
