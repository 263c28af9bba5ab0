package auth

import (
	"errors"

	"shopifyauth/pkg/shopify"
)

var (
	ErrConfigMissing    = errors.New("missing SHOPIFY_CLIENT_ID or SHOPIFY_CLIENT_SECRET (add them from your Partners dashboard)")
	ErrCSRFMismatch     = errors.New("state mismatch: possible CSRF attack")
	ErrSignatureInvalid = errors.New("HMAC validation failed: callback may be tampered")
	ErrShopMismatch     = errors.New("shop in callback does not match the store being authenticated")
	ErrMissingCode      = errors.New("no authorization code in callback")
	ErrTimeout          = errors.New("timed out waiting for OAuth callback")
	ErrExchangeFailed   = shopify.ErrExchangeFailed
)
