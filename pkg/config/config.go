package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultScopes are the Admin API scopes the metaobject tooling needs.
const DefaultScopes = "read_metaobject_definitions,write_metaobject_definitions,read_metaobjects,write_metaobjects,read_products,write_products,read_files,write_files"

type Config struct {
	AppEnv string

	// TokenStore selects the token backend: "file" (default) or "postgres".
	TokenStore string
	TokensPath string

	// Postgres token store only:
	// - DATABASE_URL: runtime connection
	// - DIRECT_URL: direct connection for migrations
	DatabaseURL    string
	DirectURL      string
	MigrationsPath string

	DB DBConfig

	Shopify ShopifyConfig

	// AuthTimeout bounds how long the callback listener waits for the redirect.
	AuthTimeout time.Duration
}

type DBConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

type ShopifyConfig struct {
	ClientID     string
	ClientSecret string
	Scopes       []string

	// RedirectURL must be registered in the Partners dashboard.
	RedirectURL  string
	CallbackAddr string

	APIVersion string

	// Store and AccessToken are the fallback credentials for the API scripts
	// when no --store flag is given.
	Store       string
	AccessToken string
}

func (s ShopifyConfig) HasClientCredentials() bool {
	return strings.TrimSpace(s.ClientID) != "" && strings.TrimSpace(s.ClientSecret) != ""
}

func Load() Config {
	// Local .env is the normal place for client credentials; real environment wins.
	if p := os.Getenv("ENV_FILE"); p != "" {
		_ = godotenv.Load(p)
	} else {
		_ = godotenv.Load()
	}

	return Config{
		AppEnv:         env("APP_ENV", "dev"),
		TokenStore:     strings.ToLower(env("TOKEN_STORE", "file")),
		TokensPath:     env("TOKENS_PATH", ".tokens.json"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DirectURL:      os.Getenv("DIRECT_URL"),
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
		DB: DBConfig{
			Host:     env("DB_HOST", "localhost"),
			Port:     env("DB_PORT", "5432"),
			Name:     env("DB_NAME", "shopifyauth"),
			User:     env("DB_USER", "shopifyauth"),
			Password: env("DB_PASSWORD", "shopifyauth"),
			SSLMode:  env("DB_SSLMODE", "disable"),
		},
		Shopify: ShopifyConfig{
			ClientID:     os.Getenv("SHOPIFY_CLIENT_ID"),
			ClientSecret: os.Getenv("SHOPIFY_CLIENT_SECRET"),
			Scopes:       envList("SHOPIFY_SCOPES", DefaultScopes),
			RedirectURL:  env("SHOPIFY_REDIRECT_URL", "http://localhost:3456/callback"),
			CallbackAddr: env("SHOPIFY_CALLBACK_ADDR", "localhost:3456"),
			APIVersion:   env("SHOPIFY_API_VERSION", "2025-01"),
			Store:        os.Getenv("SHOPIFY_STORE"),
			AccessToken:  os.Getenv("SHOPIFY_ACCESS_TOKEN"),
		},
		AuthTimeout: envDuration("AUTH_TIMEOUT", 5*time.Minute),
	}
}

func env(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envList(key, fallbackCSV string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = fallbackCSV
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
