package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrNoStoreConfigured = errors.New("no store configured: set SHOPIFY_STORE or pass --store <name>")

type Credentials struct {
	StoreName   string
	ShopDomain  string
	AccessToken string
}

// Resolve picks the store and token for an Admin API call.
//
// Order: the --store flag (token must be stored), then SHOPIFY_STORE (stored token,
// falling back to SHOPIFY_ACCESS_TOKEN).
func Resolve(ctx context.Context, s Store, flagStore, envStore, envToken string) (Credentials, error) {
	if strings.TrimSpace(flagStore) != "" {
		name, err := NormalizeStoreName(flagStore)
		if err != nil {
			return Credentials{}, err
		}
		tok, err := s.Get(ctx, name)
		if err != nil {
			return Credentials{}, fmt.Errorf("%w (run: authenticate %s)", err, name)
		}
		return Credentials{StoreName: name, ShopDomain: ShopDomain(name), AccessToken: tok}, nil
	}

	if strings.TrimSpace(envStore) == "" {
		return Credentials{}, ErrNoStoreConfigured
	}
	name, err := NormalizeStoreName(envStore)
	if err != nil {
		return Credentials{}, err
	}
	tok, err := s.Get(ctx, name)
	if err == nil {
		return Credentials{StoreName: name, ShopDomain: ShopDomain(name), AccessToken: tok}, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Credentials{}, err
	}
	if envToken = strings.TrimSpace(envToken); envToken != "" {
		return Credentials{StoreName: name, ShopDomain: ShopDomain(name), AccessToken: envToken}, nil
	}
	return Credentials{}, fmt.Errorf("%w (run: authenticate %s, or set SHOPIFY_ACCESS_TOKEN)", err, name)
}
