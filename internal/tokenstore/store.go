package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrNotFound     = errors.New("token not found")
	ErrInvalidStore = errors.New("invalid store name")
)

// Store persists one offline Admin API token per store name.
//
// Implementations assume a single writer; read-modify-write is not locked.
type Store interface {
	Load(ctx context.Context) (map[string]string, error)
	Get(ctx context.Context, storeName string) (string, error)
	Put(ctx context.Context, storeName, accessToken string) error
	Delete(ctx context.Context, storeName string) error
}

var storeNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// NormalizeStoreName accepts "name" or "name.myshopify.com" and returns "name".
func NormalizeStoreName(s string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.TrimPrefix(name, "https://")
	name = strings.TrimSuffix(name, "/")
	name = strings.TrimSuffix(name, ".myshopify.com")
	if !storeNameRe.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidStore, s)
	}
	return name, nil
}

// ShopDomain returns the myshopify.com host for a normalized store name.
func ShopDomain(storeName string) string {
	return storeName + ".myshopify.com"
}
