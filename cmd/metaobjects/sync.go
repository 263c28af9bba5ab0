package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"shopifyauth/pkg/shopify"
)

// syncImages uploads <dir>/<handle>/* and points each metaobject's image field
// at the new files. Every image goes through stage, upload, fileCreate and a
// READY poll before the metaobject is updated once with all file ids.
func (a app) syncImages(ctx context.Context, c shopify.Client, args []string) error {
	fs := flag.NewFlagSet("sync-images", flag.ContinueOnError)
	typ := fs.String("type", "color_combination", "metaobject type")
	field := fs.String("field", "images", "file-list field to replace")
	dryRun := fs.Bool("dry-run", false, "preview without uploading")
	pos, err := parseInterleaved(fs, args)
	if err != nil || len(pos) < 1 || len(pos) > 2 {
		return errUsage
	}
	dir := pos[0]

	var handles []string
	if len(pos) == 2 {
		handles = []string{pos[1]}
	} else if handles, err = subdirs(dir); err != nil {
		return err
	}
	if len(handles) == 0 {
		fmt.Fprintf(a.stdout, "No folders found in %s. Create one per metaobject handle, e.g. %s\n",
			dir, filepath.Join(dir, "scandinavian-warm"))
		return nil
	}
	if *dryRun {
		fmt.Fprintln(a.stdout, "Dry run, no uploads will be made.")
	}
	fmt.Fprintf(a.stdout, "Syncing %d folder(s)...\n", len(handles))

	var synced, failed int
	for _, h := range handles {
		fmt.Fprintf(a.stdout, "\n%s/\n", h)
		if err := a.syncFolder(ctx, c, filepath.Join(dir, h), *typ, h, *field, *dryRun); err != nil {
			log.Printf("image sync failed shop=%s handle=%s err=%v", c.ShopDomain, h, err)
			fmt.Fprintf(a.stderr, "  Error: %v\n", err)
			failed++
			continue
		}
		synced++
	}
	fmt.Fprintf(a.stdout, "\nDone! Synced: %d, Failed: %d\n", synced, failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d folders failed", failed, len(handles))
	}
	return nil
}

func (a app) syncFolder(ctx context.Context, c shopify.Client, folder, typ, handle, field string, dryRun bool) error {
	images, err := imageFiles(folder)
	if err != nil {
		return err
	}
	if len(images) == 0 {
		fmt.Fprintln(a.stdout, "  (no images, skipping)")
		return nil
	}

	m, err := c.MetaobjectByHandle(ctx, typ, handle)
	if err != nil {
		return err
	}
	if m == nil {
		fmt.Fprintf(a.stdout, "  No %s metaobject with handle %q, skipping\n", typ, handle)
		return nil
	}
	fmt.Fprintf(a.stdout, "  Found metaobject: %s\n", m.Label())
	fmt.Fprintf(a.stdout, "  Images to upload: %d\n", len(images))
	if dryRun {
		for _, img := range images {
			fmt.Fprintf(a.stdout, "    - %s\n", img)
		}
		return nil
	}

	ids := make([]string, 0, len(images))
	for i, img := range images {
		if i > 0 {
			if err := a.pause(ctx); err != nil {
				return err
			}
		}
		id, err := a.uploadImage(ctx, c, filepath.Join(folder, img))
		if err != nil {
			return fmt.Errorf("%s: %w", img, err)
		}
		fmt.Fprintf(a.stdout, "    ✓ %s ready\n", img)
		ids = append(ids, id)
	}

	value, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "  Updating metaobject with %d images...\n", len(ids))
	if _, err := c.UpdateMetaobject(ctx, m.ID, []shopify.MetaobjectField{{Key: field, Value: string(value)}}); err != nil {
		return err
	}
	return nil
}

// uploadImage runs one file through the staged upload chain and returns its file id.
func (a app) uploadImage(ctx context.Context, c shopify.Client, path string) (string, error) {
	name := filepath.Base(path)
	mimeType, _ := shopify.ImageMimeType(name)

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return "", err
	}

	target, err := c.CreateStagedUpload(ctx, name, mimeType, st.Size())
	if err != nil {
		return "", err
	}
	resourceURL, err := c.Upload(ctx, target, name, f)
	if err != nil {
		return "", err
	}
	file, err := c.CreateFile(ctx, resourceURL, name)
	if err != nil {
		return "", err
	}
	if err := c.WaitForFile(ctx, file.ID, a.pollInterval, a.pollAttempts); err != nil {
		return "", err
	}
	return file.ID, nil
}

func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

// imageFiles lists uploadable images in folder, sorted by name. A missing
// folder has no images.
func imageFiles(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if _, ok := shopify.ImageMimeType(e.Name()); ok {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}
