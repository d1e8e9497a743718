package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fixedConfigProvider struct {
	cfg Config
	err error
}

func (p *fixedConfigProvider) Load(context.Context, Config) (Config, error) {
	return p.cfg, p.err
}

type fixedOptionsResolver struct {
	cfg Config
}

func (r *fixedOptionsResolver) Resolve(Config, Config, Config) (Config, error) {
	return r.cfg, nil
}

func TestResolveConfig_Defaults(t *testing.T) {
	cfg, err := ResolveConfig(context.Background(), Config{}, nil, nil)
	if err != nil {
		t.Fatalf("resolve config: %v", err)
	}
	if cfg.ServiceName != "quality-hooks" || cfg.PublicURL() != "http://localhost:9000" {
		t.Fatalf("unexpected defaults %#v", cfg)
	}
	w := cfg.Webhooks
	if !w.Enabled || w.MaxPerScope != DefaultMaxWebhooksPerScope || w.DeliveryRetention != DefaultDeliveryRetention {
		t.Fatalf("unexpected webhook defaults %#v", w)
	}
	if w.CallTimeout != DefaultCallTimeout || w.AnalysisPropertyPrefix != DefaultAnalysisPropertyPrefix {
		t.Fatalf("unexpected call defaults %#v", w)
	}
}

func TestResolveConfig_LayeringPrecedence(t *testing.T) {
	provider := NewCfgxConfigProvider(StaticConfigLoader{Values: map[string]any{
		"service_name": "from-config",
		"webhooks": map[string]any{
			"delivery_retention": 5,
			"call_timeout":       2 * time.Second,
		},
	}})

	cfg, err := ResolveConfig(context.Background(), Config{ServiceName: "from-runtime"}, provider, nil)
	if err != nil {
		t.Fatalf("resolve config: %v", err)
	}
	if cfg.ServiceName != "from-runtime" {
		t.Fatalf("expected runtime value to override config, got %q", cfg.ServiceName)
	}
	if cfg.Webhooks.DeliveryRetention != 5 || cfg.Webhooks.CallTimeout != 2*time.Second {
		t.Fatalf("expected config layer webhook values, got %#v", cfg.Webhooks)
	}
	if cfg.Webhooks.MaxPerScope != DefaultMaxWebhooksPerScope {
		t.Fatalf("expected default max per scope, got %d", cfg.Webhooks.MaxPerScope)
	}
}

func TestResolveConfig_ConfigLayerCanDisableWebhooks(t *testing.T) {
	provider := NewCfgxConfigProvider(StaticConfigLoader{Values: map[string]any{
		"webhooks": map[string]any{"enabled": false},
	}})
	cfg, err := ResolveConfig(context.Background(), Config{}, provider, nil)
	if err != nil {
		t.Fatalf("resolve config: %v", err)
	}
	if cfg.Webhooks.Enabled {
		t.Fatalf("expected webhooks disabled by config layer")
	}
}

func TestResolveConfig_UsesInjectedCollaborators(t *testing.T) {
	want := DefaultConfig()
	want.ServiceName = "resolved"
	cfg, err := ResolveConfig(context.Background(), Config{}, &fixedConfigProvider{cfg: DefaultConfig()}, &fixedOptionsResolver{cfg: want})
	if err != nil {
		t.Fatalf("resolve config: %v", err)
	}
	if cfg.ServiceName != "resolved" {
		t.Fatalf("expected resolver output, got %q", cfg.ServiceName)
	}

	sentinel := errors.New("vault sealed")
	if _, err := ResolveConfig(context.Background(), Config{}, &fixedConfigProvider{err: sentinel}, nil); !errors.Is(err, sentinel) {
		t.Fatalf("expected provider error to propagate, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	cfg := DefaultConfig()
	cfg.Server.PublicURL = " "
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected public url error")
	}
	cfg = DefaultConfig()
	cfg.Webhooks.DeliveryRetention = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected retention error")
	}
	cfg = DefaultConfig()
	cfg.Server.PublicURL = "https://quality.example/"
	if cfg.PublicURL() != "https://quality.example" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.PublicURL())
	}
}
