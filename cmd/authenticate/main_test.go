package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shopifyauth/internal/auth"
	"shopifyauth/internal/tokenstore"
)

func newAuth(t *testing.T) (auth.Authenticator, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".tokens.json")
	return auth.Authenticator{Store: tokenstore.NewFileStore(path)}, path
}

func TestRun_ListEmpty(t *testing.T) {
	a, _ := newAuth(t)
	var out, errOut bytes.Buffer
	if code := run(context.Background(), a, []string{"--list"}, &out, &errOut); code != 0 {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	if !strings.Contains(out.String(), "No stored tokens") {
		t.Fatalf("unexpected output: %s", out.String())
	}
}

func TestRun_ListMasks(t *testing.T) {
	a, _ := newAuth(t)
	_ = a.Store.Put(context.Background(), "my-store", "shpat_0123456789abcdefWXYZ")

	var out, errOut bytes.Buffer
	if code := run(context.Background(), a, []string{"--list"}, &out, &errOut); code != 0 {
		t.Fatalf("exit %d", code)
	}
	s := out.String()
	if !strings.Contains(s, "my-store.myshopify.com") || !strings.Contains(s, "shpat_01...WXYZ") {
		t.Fatalf("unexpected output: %s", s)
	}
	if strings.Contains(s, "456789") {
		t.Fatalf("token middle leaked: %s", s)
	}
}

func TestRun_RevokeUnknownExitsOne(t *testing.T) {
	a, path := newAuth(t)
	_ = a.Store.Put(context.Background(), "other", "shpat_x")
	before, _ := os.ReadFile(path)

	var out, errOut bytes.Buffer
	if code := run(context.Background(), a, []string{"--revoke", "my-store"}, &out, &errOut); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	after, _ := os.ReadFile(path)
	if !bytes.Equal(before, after) {
		t.Fatalf("file changed")
	}
}

func TestRun_RevokeKnown(t *testing.T) {
	a, _ := newAuth(t)
	_ = a.Store.Put(context.Background(), "my-store", "shpat_x")

	var out, errOut bytes.Buffer
	if code := run(context.Background(), a, []string{"--revoke", "my-store"}, &out, &errOut); code != 0 {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	if !strings.Contains(out.String(), `Token for "my-store" removed.`) {
		t.Fatalf("unexpected output: %s", out.String())
	}
}

func TestRun_UsageErrors(t *testing.T) {
	a, _ := newAuth(t)
	for _, args := range [][]string{nil, {"a", "b"}, {"--bogus"}} {
		var out, errOut bytes.Buffer
		if code := run(context.Background(), a, args, &out, &errOut); code != 1 {
			t.Fatalf("args %v: expected exit 1, got %d", args, code)
		}
	}
}

func TestRun_AuthenticateWithoutCredentials(t *testing.T) {
	a, _ := newAuth(t)
	var out, errOut bytes.Buffer
	if code := run(context.Background(), a, []string{"my-store"}, &out, &errOut); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(errOut.String(), "SHOPIFY_CLIENT_ID") {
		t.Fatalf("unexpected stderr: %s", errOut.String())
	}
}
