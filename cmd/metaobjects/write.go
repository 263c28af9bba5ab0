package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"regexp"
	"sort"
	"strings"

	"shopifyauth/pkg/shopify"
)

// entrySpec is one element of a create file:
//
//	[{"handle": "snehvid", "fields": {"name": "Snehvid", "hex_color": "#FFFFFF"}}]
//
// handle defaults to the handleized "name" field.
type entrySpec struct {
	Handle string            `json:"handle"`
	Fields map[string]string `json:"fields"`
}

var nonHandleChars = regexp.MustCompile(`[^a-z0-9æøå]+`)

func handleize(name string) string {
	h := nonHandleChars.ReplaceAllString(strings.ToLower(name), "-")
	return strings.TrimRight(h, "-")
}

// sortedFields turns a field map into a stable field list.
func sortedFields(m map[string]string) []shopify.MetaobjectField {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]shopify.MetaobjectField, 0, len(keys))
	for _, k := range keys {
		out = append(out, shopify.MetaobjectField{Key: k, Value: m[k]})
	}
	return out
}

func (a app) metafieldDefinitions(ctx context.Context, c shopify.Client) error {
	defs, err := c.ListMetafieldDefinitions(ctx, "PRODUCT")
	if err != nil {
		return err
	}
	if len(defs) == 0 {
		fmt.Fprintln(a.stdout, "No metafield definitions found for products.")
		return nil
	}
	fmt.Fprintf(a.stdout, "\nProduct metafield definitions (%d):\n\n", len(defs))
	for _, d := range defs {
		fmt.Fprintf(a.stdout, "  %s.%s  %q (%s)\n", d.Namespace, d.Key, d.Name, d.Type.Name)
		for _, v := range d.Validations {
			fmt.Fprintf(a.stdout, "    %s: %s\n", v.Name, v.Value)
		}
	}
	fmt.Fprintln(a.stdout)
	return nil
}

func (a app) create(ctx context.Context, c shopify.Client, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	dryRun := fs.Bool("dry-run", false, "preview only")
	pos, err := parseInterleaved(fs, args)
	if err != nil || len(pos) != 2 {
		return errUsage
	}
	typ, path := pos[0], pos[1]

	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var entries []entrySpec
	if err := json.Unmarshal(b, &entries); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	for i := range entries {
		if entries[i].Handle == "" {
			entries[i].Handle = handleize(entries[i].Fields["name"])
		}
		if entries[i].Handle == "" || len(entries[i].Fields) == 0 {
			return fmt.Errorf("%s: entry %d needs a handle or name and at least one field", path, i)
		}
	}

	fmt.Fprintf(a.stdout, "\nCreating %d metaobjects of type %q\n", len(entries), typ)
	if *dryRun {
		fmt.Fprintln(a.stdout, "  (dry run, nothing will be created)")
	}
	fmt.Fprintln(a.stdout)

	var created, failed int
	for i, e := range entries {
		if *dryRun {
			fmt.Fprintf(a.stdout, "  [DRY] %s (%d fields)\n", e.Handle, len(e.Fields))
			continue
		}
		if i > 0 {
			if err := a.pause(ctx); err != nil {
				return err
			}
		}
		m, err := c.CreateMetaobject(ctx, shopify.MetaobjectInput{Type: typ, Handle: e.Handle, Fields: sortedFields(e.Fields)})
		if err != nil {
			log.Printf("metaobject create failed shop=%s type=%s handle=%s err=%v", c.ShopDomain, typ, e.Handle, err)
			fmt.Fprintf(a.stderr, "  ✗ %s: %v\n", e.Handle, err)
			failed++
			continue
		}
		fmt.Fprintf(a.stdout, "  ✓ %s → %s\n", m.Handle, m.ID)
		created++
	}
	if *dryRun {
		return nil
	}
	fmt.Fprintf(a.stdout, "\nDone! Created: %d, Errors: %d\n", created, failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d creates failed", failed, len(entries))
	}
	return nil
}

func (a app) update(ctx context.Context, c shopify.Client, args []string) error {
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	dryRun := fs.Bool("dry-run", false, "preview only")
	pos, err := parseInterleaved(fs, args)
	if err != nil || len(pos) < 3 {
		return errUsage
	}
	typ, handle := pos[0], pos[1]
	fields := map[string]string{}
	for _, kv := range pos[2:] {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return fmt.Errorf("invalid field %q (want key=value)", kv)
		}
		fields[k] = v
	}

	m, err := c.MetaobjectByHandle(ctx, typ, handle)
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("no %s metaobject with handle %q", typ, handle)
	}

	list := sortedFields(fields)
	for _, f := range list {
		fmt.Fprintf(a.stdout, "  %s: %q → %q\n", f.Key, m.FieldValue(f.Key), f.Value)
	}
	if *dryRun {
		fmt.Fprintln(a.stdout, "\n(dry run, nothing was updated)")
		return nil
	}
	if _, err := c.UpdateMetaobject(ctx, m.ID, list); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "\nUpdated %s.\n", m.Label())
	return nil
}

func (a app) assign(ctx context.Context, c shopify.Client, args []string) error {
	fs := flag.NewFlagSet("assign", flag.ContinueOnError)
	dryRun := fs.Bool("dry-run", false, "preview only")
	pos, err := parseInterleaved(fs, args)
	if err != nil || len(pos) != 3 {
		return errUsage
	}
	productID := pos[0]
	namespace, key, ok := strings.Cut(pos[1], ".")
	if !ok || namespace == "" || key == "" {
		return fmt.Errorf("invalid metafield %q (want namespace.key)", pos[1])
	}
	typ, handle, ok := strings.Cut(pos[2], "/")
	if !ok || typ == "" || handle == "" {
		return fmt.Errorf("invalid metaobject %q (want type/handle)", pos[2])
	}
	if !strings.HasPrefix(productID, "gid://") {
		productID = "gid://shopify/Product/" + productID
	}

	m, err := c.MetaobjectByHandle(ctx, typ, handle)
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("no %s metaobject with handle %q", typ, handle)
	}
	fmt.Fprintf(a.stdout, "\n%s.%s on %s → %s (%s)\n", namespace, key, productID, m.Label(), m.ID)
	if *dryRun {
		fmt.Fprintln(a.stdout, "(dry run, nothing was assigned)")
		return nil
	}

	defID, err := c.MetaobjectDefinitionID(ctx, typ)
	if err != nil {
		return err
	}
	_, err = c.CreateMetafieldDefinition(ctx, shopify.MetafieldDefinitionInput{
		Name:        key,
		Namespace:   namespace,
		Key:         key,
		Type:        "metaobject_reference",
		OwnerType:   "PRODUCT",
		Validations: []shopify.Validation{{Name: "metaobject_definition_id", Value: defID}},
	})
	switch {
	case errors.Is(err, shopify.ErrDefinitionExists):
		fmt.Fprintln(a.stdout, "  Definition already exists, continuing...")
	case err != nil:
		return err
	default:
		fmt.Fprintf(a.stdout, "  Definition created: %s.%s\n", namespace, key)
	}

	if _, err := c.SetMetafields(ctx, []shopify.MetafieldsSetInput{{
		OwnerID:   productID,
		Namespace: namespace,
		Key:       key,
		Type:      "metaobject_reference",
		Value:     m.ID,
	}}); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "  ✓ Assigned")
	return nil
}
