// Command authenticate runs the Shopify OAuth flow for a store and manages the
// stored offline tokens.
//
//	authenticate <store-name>            authenticate against a store
//	authenticate --list                  show all stored tokens
//	authenticate --revoke <store-name>   remove a stored token
//
// SHOPIFY_CLIENT_ID and SHOPIFY_CLIENT_SECRET come from .env, and the redirect URL
// (default http://localhost:3456/callback) must be allowed in the Partners dashboard.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"shopifyauth/internal/auth"
	"shopifyauth/internal/tokenstore"
	"shopifyauth/pkg/config"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	store, closeStore, err := tokenstore.Open(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	a := auth.Authenticator{
		Cfg:     cfg.Shopify,
		Store:   store,
		Timeout: cfg.AuthTimeout,
		Out:     os.Stdout,
	}
	code := run(ctx, a, os.Args[1:], os.Stdout, os.Stderr)
	closeStore()
	stop()
	os.Exit(code)
}

func run(ctx context.Context, a auth.Authenticator, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("authenticate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		list   = fs.Bool("list", false, "show all stored tokens (masked)")
		revoke = fs.String("revoke", "", "remove the stored token for `store-name`")
	)
	fs.Usage = func() { usage(stderr) }
	if err := fs.Parse(args); err != nil {
		return 1
	}

	switch {
	case *list:
		return listTokens(ctx, a, stdout, stderr)
	case *revoke != "":
		if err := a.RevokeToken(ctx, *revoke); err != nil {
			if errors.Is(err, tokenstore.ErrNotFound) {
				fmt.Fprintf(stderr, "\nNo token found for %q.\n\n", *revoke)
			} else {
				fmt.Fprintf(stderr, "Error: %v\n", err)
			}
			return 1
		}
		fmt.Fprintf(stdout, "\nToken for %q removed.\n\n", *revoke)
		return 0
	case fs.NArg() == 1:
		if err := a.Authenticate(ctx, fs.Arg(0)); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	default:
		usage(stderr)
		return 1
	}
}

func listTokens(ctx context.Context, a auth.Authenticator, stdout, stderr io.Writer) int {
	tokens, err := a.ListTokens(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if len(tokens) == 0 {
		fmt.Fprintln(stdout, "\nNo stored tokens. Run: authenticate <store-name>")
		fmt.Fprintln(stdout)
		return 0
	}
	fmt.Fprintln(stdout, "\nStored tokens:")
	fmt.Fprintln(stdout)
	for _, t := range tokens {
		fmt.Fprintf(stdout, "  %s  →  %s\n", tokenstore.ShopDomain(t.StoreName), t.Masked)
	}
	fmt.Fprintln(stdout)
	return 0
}

func usage(w io.Writer) {
	fmt.Fprint(w, `
Usage:
  authenticate <store-name>            Authenticate against a store
  authenticate --list                  Show all stored tokens
  authenticate --revoke <store-name>   Remove a stored token

Example:
  authenticate den-lille-malerfabrik
`)
}
