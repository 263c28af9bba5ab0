package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV_FILE", t.TempDir()+"/missing.env")
	t.Setenv("SHOPIFY_SCOPES", "")
	t.Setenv("AUTH_TIMEOUT", "")
	t.Setenv("TOKENS_PATH", "")
	t.Setenv("SHOPIFY_REDIRECT_URL", "")

	cfg := Load()
	if cfg.TokensPath != ".tokens.json" {
		t.Fatalf("tokens path: %q", cfg.TokensPath)
	}
	if cfg.Shopify.RedirectURL != "http://localhost:3456/callback" {
		t.Fatalf("redirect url: %q", cfg.Shopify.RedirectURL)
	}
	if cfg.AuthTimeout != 5*time.Minute {
		t.Fatalf("timeout: %v", cfg.AuthTimeout)
	}
	if len(cfg.Shopify.Scopes) != 8 || cfg.Shopify.Scopes[0] != "read_metaobject_definitions" {
		t.Fatalf("scopes: %v", cfg.Shopify.Scopes)
	}
}

func TestEnvList_TrimsAndSkipsEmpty(t *testing.T) {
	t.Setenv("X_LIST", " a, b ,,c ")
	got := envList("X_LIST", "")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("unexpected list: %q", got)
	}
}

func TestEnvDuration_InvalidFallsBack(t *testing.T) {
	t.Setenv("X_DUR", "soon")
	if got := envDuration("X_DUR", time.Second); got != time.Second {
		t.Fatalf("expected fallback, got %v", got)
	}
	t.Setenv("X_DUR", "90s")
	if got := envDuration("X_DUR", time.Second); got != 90*time.Second {
		t.Fatalf("expected 90s, got %v", got)
	}
}

func TestHasClientCredentials(t *testing.T) {
	if (ShopifyConfig{ClientID: "id"}).HasClientCredentials() {
		t.Fatalf("expected false without secret")
	}
	if !(ShopifyConfig{ClientID: "id", ClientSecret: "s"}).HasClientCredentials() {
		t.Fatalf("expected true")
	}
}
