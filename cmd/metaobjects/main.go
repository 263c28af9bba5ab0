// Command metaobjects inspects and prunes metaobjects and products in a store
// authenticated with the authenticate command.
//
//	metaobjects [--store <name>] definitions
//	metaobjects [--store <name>] list <type>
//	metaobjects [--store <name>] delete <type> [--confirm]
//	metaobjects [--store <name>] products
//	metaobjects [--store <name>] metafield-definitions
//	metaobjects [--store <name>] create <type> <entries.json> [--dry-run]
//	metaobjects [--store <name>] update <type> <handle> key=value... [--dry-run]
//	metaobjects [--store <name>] assign <product-id> <namespace.key> <type>/<handle> [--dry-run]
//	metaobjects [--store <name>] sync-images <dir> [handle] [--type t] [--field f] [--dry-run]
//
// Without --store, SHOPIFY_STORE (and optionally SHOPIFY_ACCESS_TOKEN) from .env is used.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopifyauth/internal/tokenstore"
	"shopifyauth/pkg/config"
	"shopifyauth/pkg/shopify"
)

const (
	// mutationDelay spaces out mutations as a courtesy to the API rate limit.
	mutationDelay = 500 * time.Millisecond

	filePollInterval = 1500 * time.Millisecond
	filePollAttempts = 20
)

type app struct {
	store   tokenstore.Store
	shopify config.ShopifyConfig
	baseURL string
	stdout  io.Writer
	stderr  io.Writer

	delay        time.Duration
	pollInterval time.Duration
	pollAttempts int
}

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	store, closeStore, err := tokenstore.Open(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	a := app{
		store:        store,
		shopify:      cfg.Shopify,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
		delay:        mutationDelay,
		pollInterval: filePollInterval,
		pollAttempts: filePollAttempts,
	}
	code := a.run(ctx, os.Args[1:])
	closeStore()
	stop()
	os.Exit(code)
}

func (a app) run(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("metaobjects", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	storeFlag := fs.String("store", "", "store name (looked up in the token store)")
	fs.Usage = a.usage
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() == 0 {
		a.usage()
		return 1
	}

	creds, err := tokenstore.Resolve(ctx, a.store, *storeFlag, a.shopify.Store, a.shopify.AccessToken)
	if err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return 1
	}
	c := shopify.Client{
		ShopDomain:  creds.ShopDomain,
		AccessToken: creds.AccessToken,
		APIVersion:  a.shopify.APIVersion,
		BaseURL:     a.baseURL,
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "definitions":
		err = a.definitions(ctx, c)
	case "list":
		if len(rest) != 1 {
			a.usage()
			return 1
		}
		err = a.list(ctx, c, rest[0])
	case "delete":
		typ, confirm, ok := parseDeleteArgs(rest)
		if !ok {
			a.usage()
			return 1
		}
		err = a.delete(ctx, c, typ, confirm)
	case "products":
		err = a.products(ctx, c)
	case "metafield-definitions":
		err = a.metafieldDefinitions(ctx, c)
	case "create":
		err = a.create(ctx, c, rest)
	case "update":
		err = a.update(ctx, c, rest)
	case "assign":
		err = a.assign(ctx, c, rest)
	case "sync-images":
		err = a.syncImages(ctx, c, rest)
	default:
		a.usage()
		return 1
	}
	if errors.Is(err, errUsage) {
		a.usage()
		return 1
	}
	if err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

var errUsage = errors.New("usage")

// parseInterleaved parses fs flags that may appear before, between or after
// positional arguments and returns the positionals in order.
func parseInterleaved(fs *flag.FlagSet, args []string) ([]string, error) {
	fs.SetOutput(io.Discard)
	var pos []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			return pos, nil
		}
		pos = append(pos, fs.Arg(0))
		args = fs.Args()[1:]
	}
}

// parseDeleteArgs accepts "<type> [--confirm]" in either order.
func parseDeleteArgs(args []string) (typ string, confirm bool, ok bool) {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	c := fs.Bool("confirm", false, "actually delete")
	pos, err := parseInterleaved(fs, args)
	if err != nil || len(pos) != 1 {
		return "", false, false
	}
	return pos[0], *c, true
}

func (a app) definitions(ctx context.Context, c shopify.Client) error {
	defs, err := c.ListMetaobjectDefinitions(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "\nMetaobject definitions in %s:\n\n", c.ShopDomain)
	for _, d := range defs {
		fmt.Fprintf(a.stdout, "  %s (%q)\n", d.Type, d.Name)
		for _, f := range d.FieldDefinitions {
			fmt.Fprintf(a.stdout, "    - %s (%s)\n", f.Key, f.Type.Name)
		}
		fmt.Fprintln(a.stdout)
	}
	fmt.Fprintln(a.stdout, "Run with a type to list entries: metaobjects list paint_color")
	return nil
}

func (a app) list(ctx context.Context, c shopify.Client, typ string) error {
	entries, err := c.ListAllMetaobjects(ctx, typ)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "\nMetaobjects of type %q:\n\n", typ)
	if len(entries) == 0 {
		fmt.Fprintln(a.stdout, "  (none found)")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(a.stdout, "  %s\n", e.Label())
		for _, f := range e.Fields {
			if f.Value != "" {
				fmt.Fprintf(a.stdout, "    %s: %s\n", f.Key, f.Value)
			}
		}
		fmt.Fprintln(a.stdout)
	}
	fmt.Fprintf(a.stdout, "Total: %d\n", len(entries))
	return nil
}

func (a app) delete(ctx context.Context, c shopify.Client, typ string, confirm bool) error {
	entries, err := c.ListAllMetaobjects(ctx, typ)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(a.stdout, "\nNo metaobjects of type %q found.\n", typ)
		return nil
	}
	fmt.Fprintf(a.stdout, "\nFound %d metaobjects of type %q:\n\n", len(entries), typ)

	if !confirm {
		for _, e := range entries {
			fmt.Fprintf(a.stdout, "  [DRY] Would delete: %s\n", e.Label())
		}
		fmt.Fprintln(a.stdout, "\nRun with --confirm to actually delete them.")
		return nil
	}

	var deleted, failed int
	for i, e := range entries {
		if i > 0 {
			if err := a.pause(ctx); err != nil {
				return err
			}
		}
		if _, err := c.DeleteMetaobject(ctx, e.ID); err != nil {
			log.Printf("metaobject delete failed shop=%s id=%s err=%v", c.ShopDomain, e.ID, err)
			fmt.Fprintf(a.stderr, "  ✗ %s: %v\n", e.Label(), err)
			failed++
			continue
		}
		fmt.Fprintf(a.stdout, "  ✓ Deleted: %s\n", e.Label())
		deleted++
	}
	fmt.Fprintf(a.stdout, "\nDone! Deleted: %d, Errors: %d\n", deleted, failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d deletes failed", failed, len(entries))
	}
	return nil
}

func (a app) products(ctx context.Context, c shopify.Client) error {
	products, err := c.ListProducts(ctx, 50)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		fmt.Fprintln(a.stdout, "No products found in the store.")
		return nil
	}
	fmt.Fprintf(a.stdout, "\nProducts in store (%d):\n\n", len(products))
	for _, p := range products {
		fmt.Fprintf(a.stdout, "  %s\n", p.Title)
		fmt.Fprintf(a.stdout, "    Handle: %s\n", p.Handle)
		fmt.Fprintf(a.stdout, "    ID: %s\n", p.ID)
		if p.Currency != "" {
			fmt.Fprintf(a.stdout, "    From: %s %s\n", p.MinPrice.StringFixed(2), p.Currency)
		}
		if len(p.Metafields) == 0 {
			fmt.Fprintln(a.stdout, "    (no metafields assigned)")
		}
		for _, m := range p.Metafields {
			fmt.Fprintf(a.stdout, "    %s.%s = %s\n", m.Namespace, m.Key, m.Value)
		}
		fmt.Fprintln(a.stdout)
	}
	return nil
}

// pause waits a.delay between two mutations.
func (a app) pause(ctx context.Context) error {
	if a.delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(a.delay):
		return nil
	}
}

func (a app) usage() {
	fmt.Fprint(a.stderr, `
Usage:
  metaobjects [--store <name>] definitions              List metaobject definitions
  metaobjects [--store <name>] list <type>              List metaobjects of a type
  metaobjects [--store <name>] delete <type> [--confirm] Delete all metaobjects of a type
  metaobjects [--store <name>] products                 List products and their metafields
  metaobjects [--store <name>] metafield-definitions    List product metafield definitions
  metaobjects [--store <name>] create <type> <entries.json> [--dry-run]
                                                        Create metaobjects from a JSON file
  metaobjects [--store <name>] update <type> <handle> key=value... [--dry-run]
                                                        Update fields on one metaobject
  metaobjects [--store <name>] assign <product-id> <namespace.key> <type>/<handle> [--dry-run]
                                                        Point a product metafield at a metaobject
  metaobjects [--store <name>] sync-images <dir> [handle] [--type color_combination] [--field images] [--dry-run]
                                                        Upload <dir>/<handle>/ images and attach them
`)
}
