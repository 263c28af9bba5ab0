package auth

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"shopifyauth/internal/tokenstore"
	"shopifyauth/pkg/config"
	"shopifyauth/pkg/shopify"
)

type fixture struct {
	auth      Authenticator
	tokenPath string
	status    int
}

func newFixture(t *testing.T, tokenHandler http.HandlerFunc) *fixture {
	t.Helper()
	tokenSrv := httptest.NewServer(tokenHandler)
	t.Cleanup(tokenSrv.Close)

	f := &fixture{tokenPath: filepath.Join(t.TempDir(), ".tokens.json")}
	f.auth = Authenticator{
		Cfg: config.ShopifyConfig{
			ClientID:     "client-id",
			ClientSecret: testSecret,
			Scopes:       []string{"read_metaobjects", "write_metaobjects"},
			CallbackAddr: "127.0.0.1:0",
		},
		Store:         tokenstore.NewFileStore(f.tokenPath),
		Exchanger:     shopify.OAuthExchanger{BaseURL: tokenSrv.URL},
		Timeout:       5 * time.Second,
		GenerateNonce: func() (string, error) { return "abc123", nil },
		Out:           io.Discard,
	}
	return f
}

// redirect plays Shopify: it reads the authorize URL and calls the redirect URI
// with the given state.
func (f *fixture) redirect(t *testing.T, state string) func(string) error {
	return func(authURL string) error {
		u, err := url.Parse(authURL)
		if err != nil {
			return err
		}
		q := u.Query()
		if q.Get("client_id") != "client-id" || q.Get("scope") != "read_metaobjects,write_metaobjects" {
			t.Errorf("unexpected authorize query: %s", u.RawQuery)
		}
		if u.Host != "my-store.myshopify.com" || u.Path != "/admin/oauth/authorize" {
			t.Errorf("unexpected authorize url: %s", authURL)
		}

		params := map[string]string{
			"code":      "xyz",
			"shop":      "my-store.myshopify.com",
			"state":     state,
			"timestamp": "1700000000",
		}
		params["hmac"] = SignCallback(params, testSecret)
		v := url.Values{}
		for k, val := range params {
			v.Set(k, val)
		}

		resp, err := http.Get(q.Get("redirect_uri") + "?" + v.Encode())
		if err != nil {
			return err
		}
		resp.Body.Close()
		f.status = resp.StatusCode
		return nil
	}
}

func okTokenHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/oauth/access_token" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"access_token":"shpat_111...999","scope":"read_metaobjects"}`))
	}
}

func TestAuthenticate_EndToEnd(t *testing.T) {
	f := newFixture(t, okTokenHandler(t))
	f.auth.OpenBrowser = f.redirect(t, "abc123")

	if err := f.auth.Authenticate(context.Background(), "my-store"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if f.status != http.StatusOK {
		t.Fatalf("expected callback 200, got %d", f.status)
	}

	b, err := os.ReadFile(f.tokenPath)
	if err != nil {
		t.Fatalf("read tokens: %v", err)
	}
	if string(b) != "{\n  \"my-store\": \"shpat_111...999\"\n}\n" {
		t.Fatalf("unexpected tokens file: %s", b)
	}
}

func TestAuthenticate_StateMismatchLeavesStoreAbsent(t *testing.T) {
	f := newFixture(t, okTokenHandler(t))
	f.auth.OpenBrowser = f.redirect(t, "wrong")

	err := f.auth.Authenticate(context.Background(), "my-store")
	if !errors.Is(err, ErrCSRFMismatch) {
		t.Fatalf("expected ErrCSRFMismatch, got %v", err)
	}
	if f.status != http.StatusBadRequest {
		t.Fatalf("expected callback 400, got %d", f.status)
	}
	if _, err := os.Stat(f.tokenPath); !os.IsNotExist(err) {
		t.Fatalf("tokens file must not exist, stat err=%v", err)
	}
}

func TestAuthenticate_TimeoutLeavesStoreUnchanged(t *testing.T) {
	f := newFixture(t, okTokenHandler(t))
	original := []byte("{\"other\":\"shpat_x\"}\n")
	_ = os.WriteFile(f.tokenPath, original, 0o600)
	f.auth.Timeout = 50 * time.Millisecond
	f.auth.OpenBrowser = func(string) error { return nil }

	err := f.auth.Authenticate(context.Background(), "my-store")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	after, _ := os.ReadFile(f.tokenPath)
	if !bytes.Equal(after, original) {
		t.Fatalf("tokens file changed: %s", after)
	}
}

func TestAuthenticate_ExchangeFailureSurfacesUpstream(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_request","error_description":"code was already used"}`))
	})
	f.auth.OpenBrowser = f.redirect(t, "abc123")

	err := f.auth.Authenticate(context.Background(), "my-store")
	var exErr *shopify.ExchangeError
	if !errors.As(err, &exErr) || exErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected ExchangeError 400, got %v", err)
	}
	if !errors.Is(err, ErrExchangeFailed) || !strings.Contains(err.Error(), "already used") {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(f.tokenPath); !os.IsNotExist(err) {
		t.Fatalf("tokens file must not exist")
	}
}

func TestAuthenticate_ConfigMissingBeforeNetwork(t *testing.T) {
	f := newFixture(t, okTokenHandler(t))
	f.auth.Cfg.ClientSecret = ""
	f.auth.OpenBrowser = func(string) error {
		t.Fatalf("browser must not open without credentials")
		return nil
	}
	if err := f.auth.Authenticate(context.Background(), "my-store"); !errors.Is(err, ErrConfigMissing) {
		t.Fatalf("expected ErrConfigMissing, got %v", err)
	}
}

func TestAuthenticate_BrowserFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, okTokenHandler(t))
	open := f.redirect(t, "abc123")
	f.auth.OpenBrowser = func(u string) error {
		_ = open(u)
		return errors.New("no display")
	}
	if err := f.auth.Authenticate(context.Background(), "my-store"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
}

func TestListTokensAndRevoke(t *testing.T) {
	f := newFixture(t, okTokenHandler(t))
	ctx := context.Background()
	_ = f.auth.Store.Put(ctx, "b-store", "shpat_bbbbbbbbbbbbbbbb2222")
	_ = f.auth.Store.Put(ctx, "a-store", "shpat_aaaaaaaaaaaaaaaa1111")

	list, err := f.auth.ListTokens(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].StoreName != "a-store" || list[0].Masked != "shpat_aa...1111" {
		t.Fatalf("unexpected list: %+v", list)
	}

	before, _ := os.ReadFile(f.tokenPath)
	if err := f.auth.RevokeToken(ctx, "missing"); !errors.Is(err, tokenstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	after, _ := os.ReadFile(f.tokenPath)
	if !bytes.Equal(before, after) {
		t.Fatalf("revoke of unknown store changed the file")
	}

	if err := f.auth.RevokeToken(ctx, "a-store.myshopify.com"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	list, _ = f.auth.ListTokens(ctx)
	if len(list) != 1 || list[0].StoreName != "b-store" {
		t.Fatalf("unexpected list after revoke: %+v", list)
	}
}

func TestAuthorizeURL(t *testing.T) {
	req := AuthorizationRequest{
		Store:       "my-store",
		Nonce:       "n1",
		RedirectURI: "http://localhost:3456/callback",
		Scopes:      []string{"read_products", "write_products"},
	}
	u, err := url.Parse(req.AuthorizeURL("cid"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	q := u.Query()
	if q.Get("state") != "n1" || q.Get("redirect_uri") != "http://localhost:3456/callback" || q.Get("scope") != "read_products,write_products" {
		t.Fatalf("unexpected query: %v", q)
	}
}

func TestNewNonce_Unique(t *testing.T) {
	a, _ := NewNonce()
	b, _ := NewNonce()
	if len(a) != 32 || a == b {
		t.Fatalf("unexpected nonces %q %q", a, b)
	}
}
