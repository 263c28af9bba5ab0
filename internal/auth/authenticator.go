package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"shopifyauth/internal/tokenstore"
	"shopifyauth/pkg/config"
	"shopifyauth/pkg/shopify"
)

const DefaultTimeout = 5 * time.Minute

// AuthorizationRequest is one authentication attempt; Nonce is sent as state and
// must come back unchanged on its callback.
type AuthorizationRequest struct {
	Store       string
	Nonce       string
	RedirectURI string
	Scopes      []string
}

// AuthorizeURL is the Shopify consent screen for req.
func (req AuthorizationRequest) AuthorizeURL(clientID string) string {
	u := url.URL{
		Scheme: "https",
		Host:   tokenstore.ShopDomain(req.Store),
		Path:   "/admin/oauth/authorize",
	}
	q := u.Query()
	q.Set("client_id", clientID)
	q.Set("scope", strings.Join(req.Scopes, ","))
	q.Set("redirect_uri", req.RedirectURI)
	q.Set("state", req.Nonce)
	u.RawQuery = q.Encode()
	return u.String()
}

type MaskedToken struct {
	StoreName string
	Masked    string
}

type Authenticator struct {
	Cfg       config.ShopifyConfig
	Store     tokenstore.Store
	Exchanger shopify.OAuthExchanger

	// OpenBrowser defaults to the system browser.
	OpenBrowser func(url string) error
	Timeout     time.Duration

	// GenerateNonce defaults to NewNonce.
	GenerateNonce func() (string, error)

	// Out receives operator progress; defaults to stdout.
	Out io.Writer
}

// Authenticate runs the authorization code grant for storeName and stores the
// resulting token. The store is left untouched on any failure.
func (a Authenticator) Authenticate(ctx context.Context, storeName string) error {
	if !a.Cfg.HasClientCredentials() {
		return ErrConfigMissing
	}
	name, err := tokenstore.NormalizeStoreName(storeName)
	if err != nil {
		return err
	}
	gen := a.GenerateNonce
	if gen == nil {
		gen = NewNonce
	}
	nonce, err := gen()
	if err != nil {
		return err
	}

	out := a.out()
	open := a.OpenBrowser
	if open == nil {
		open = OpenBrowser
	}
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	shopDomain := tokenstore.ShopDomain(name)
	ex := a.Exchanger
	ex.APIKey = a.Cfg.ClientID
	ex.APISecret = a.Cfg.ClientSecret

	ln, err := Listen(ListenerConfig{
		Addr:   a.Cfg.CallbackAddr,
		Path:   callbackPath(a.Cfg.RedirectURL),
		Nonce:  nonce,
		Secret: a.Cfg.ClientSecret,
		Shop:   name,
		Exchange: func(ctx context.Context, code string) (string, error) {
			fmt.Fprintln(out, "  Exchanging code for access token...")
			return ex.ExchangeCodeForToken(ctx, shopDomain, code)
		},
	})
	if err != nil {
		return err
	}

	redirectURI := a.Cfg.RedirectURL
	if redirectURI == "" {
		redirectURI = "http://" + ln.Addr() + DefaultCallbackPath
	}
	req := AuthorizationRequest{
		Store:       name,
		Nonce:       nonce,
		RedirectURI: redirectURI,
		Scopes:      a.Cfg.Scopes,
	}
	authURL := req.AuthorizeURL(a.Cfg.ClientID)

	fmt.Fprintf(out, "\nAuthenticating %q...\n", name)
	fmt.Fprintf(out, "  Callback server listening on http://%s\n", ln.Addr())
	fmt.Fprintf(out, "  Opening browser...\n\n")
	if err := open(authURL); err != nil {
		log.Printf("open browser failed store=%s err=%v", name, err)
		fmt.Fprintf(out, "  Could not open a browser. Visit:\n  %s\n\n", authURL)
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	token, err := ln.Wait(waitCtx)
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			return fmt.Errorf("%w (%s)", err, timeout)
		}
		return err
	}

	if err := a.Store.Put(ctx, name, token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	fmt.Fprintf(out, "  Token saved: %s\n", tokenstore.Mask(token))
	fmt.Fprintf(out, "\nDone! %q is now authenticated.\n\n", name)
	return nil
}

// ListTokens returns every stored token masked, sorted by store name.
func (a Authenticator) ListTokens(ctx context.Context) ([]MaskedToken, error) {
	tokens, err := a.Store.Load(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tokens))
	for name := range tokens {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]MaskedToken, 0, len(names))
	for _, name := range names {
		out = append(out, MaskedToken{StoreName: name, Masked: tokenstore.Mask(tokens[name])})
	}
	return out, nil
}

// RevokeToken removes the stored token for storeName; tokenstore.ErrNotFound if absent.
func (a Authenticator) RevokeToken(ctx context.Context, storeName string) error {
	name, err := tokenstore.NormalizeStoreName(storeName)
	if err != nil {
		// Hand-edited files may hold names outside the normal form.
		name = strings.TrimSpace(storeName)
	}
	return a.Store.Delete(ctx, name)
}

func (a Authenticator) out() io.Writer {
	if a.Out != nil {
		return a.Out
	}
	return os.Stdout
}

// NewNonce returns 16 random bytes, hex encoded.
func NewNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func callbackPath(redirectURL string) string {
	if redirectURL == "" {
		return DefaultCallbackPath
	}
	u, err := url.Parse(redirectURL)
	if err != nil || u.Path == "" {
		return DefaultCallbackPath
	}
	return u.Path
}
