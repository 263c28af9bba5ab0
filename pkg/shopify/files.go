package shopify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrFileFailed is returned when Shopify gives up processing an uploaded file.
var ErrFileFailed = errors.New("file processing failed")

const (
	FileStatusReady  = "READY"
	FileStatusFailed = "FAILED"
)

type StagedTarget struct {
	URL         string `json:"url"`
	ResourceURL string `json:"resourceUrl"`
	Parameters  []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"parameters"`
}

type File struct {
	ID         string `json:"id"`
	FileStatus string `json:"fileStatus"`
	Alt        string `json:"alt"`
}

var imageMimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// ImageMimeType maps an image filename to its MIME type; ok is false for
// anything that is not an uploadable image.
func ImageMimeType(filename string) (string, bool) {
	mt, ok := imageMimeTypes[strings.ToLower(filepath.Ext(filename))]
	return mt, ok
}

// CreateStagedUpload reserves an upload target for one file.
func (c Client) CreateStagedUpload(ctx context.Context, filename, mimeType string, size int64) (StagedTarget, error) {
	const mutation = `
mutation StagedUpload($input: [StagedUploadInput!]!) {
  stagedUploadsCreate(input: $input) {
    stagedTargets {
      url
      resourceUrl
      parameters {
        name
        value
      }
    }
    userErrors {
      field
      message
    }
  }
}
`
	vars := map[string]any{"input": []map[string]any{{
		"filename":   filename,
		"mimeType":   mimeType,
		"fileSize":   strconv.FormatInt(size, 10),
		"httpMethod": "POST",
		"resource":   "FILE",
	}}}
	var data struct {
		StagedUploadsCreate struct {
			StagedTargets []StagedTarget `json:"stagedTargets"`
			UserErrors    []UserError    `json:"userErrors"`
		} `json:"stagedUploadsCreate"`
	}
	if err := c.graphQL(ctx, mutation, vars, &data); err != nil {
		return StagedTarget{}, err
	}
	if len(data.StagedUploadsCreate.UserErrors) > 0 {
		return StagedTarget{}, fmt.Errorf("stagedUploadsCreate user error: %s", UserErrorsMessage(data.StagedUploadsCreate.UserErrors))
	}
	if len(data.StagedUploadsCreate.StagedTargets) == 0 {
		return StagedTarget{}, fmt.Errorf("stagedUploadsCreate returned no target")
	}
	return data.StagedUploadsCreate.StagedTargets[0], nil
}

// Upload posts body to the staged target as multipart form data, target
// parameters first and the file last. It returns the target's resource URL.
func (c Client) Upload(ctx context.Context, target StagedTarget, filename string, body io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range target.Parameters {
		if err := mw.WriteField(p.Name, p.Value); err != nil {
			return "", err
		}
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(fw, body); err != nil {
		return "", fmt.Errorf("read %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URL, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	hc := c.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("upload failed (%d): %s", resp.StatusCode, string(b))
	}
	return target.ResourceURL, nil
}

// CreateFile registers an uploaded resource in the store's Files section.
func (c Client) CreateFile(ctx context.Context, resourceURL, alt string) (File, error) {
	const mutation = `
mutation CreateFile($files: [FileCreateInput!]!) {
  fileCreate(files: $files) {
    files {
      id
      fileStatus
      alt
    }
    userErrors {
      field
      message
    }
  }
}
`
	vars := map[string]any{"files": []map[string]any{{
		"originalSource": resourceURL,
		"alt":            alt,
		"contentType":    "IMAGE",
	}}}
	var data struct {
		FileCreate struct {
			Files      []File      `json:"files"`
			UserErrors []UserError `json:"userErrors"`
		} `json:"fileCreate"`
	}
	if err := c.graphQL(ctx, mutation, vars, &data); err != nil {
		return File{}, err
	}
	if len(data.FileCreate.UserErrors) > 0 {
		return File{}, fmt.Errorf("fileCreate user error: %s", UserErrorsMessage(data.FileCreate.UserErrors))
	}
	if len(data.FileCreate.Files) == 0 {
		return File{}, fmt.Errorf("fileCreate returned no file")
	}
	return data.FileCreate.Files[0], nil
}

// FileStatus returns the processing status of a MediaImage or GenericFile.
func (c Client) FileStatus(ctx context.Context, id string) (string, error) {
	const query = `
query FileStatus($ids: [ID!]!) {
  nodes(ids: $ids) {
    ... on MediaImage {
      id
      fileStatus
    }
    ... on GenericFile {
      id
      fileStatus
    }
  }
}
`
	var data struct {
		Nodes []*File `json:"nodes"`
	}
	if err := c.graphQL(ctx, query, map[string]any{"ids": []string{id}}, &data); err != nil {
		return "", err
	}
	if len(data.Nodes) == 0 || data.Nodes[0] == nil {
		return "", fmt.Errorf("file %s not found", id)
	}
	return data.Nodes[0].FileStatus, nil
}

// WaitForFile polls every interval, at most attempts times, until id is READY.
func (c Client) WaitForFile(ctx context.Context, id string, interval time.Duration, attempts int) error {
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval):
			}
		}
		status, err := c.FileStatus(ctx, id)
		if err != nil {
			return err
		}
		switch status {
		case FileStatusReady:
			return nil
		case FileStatusFailed:
			return fmt.Errorf("%w: %s", ErrFileFailed, id)
		}
	}
	return fmt.Errorf("timed out waiting for file %s", id)
}
