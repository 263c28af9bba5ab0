package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// FileStore keeps tokens in a flat JSON object, rewritten in full on every change.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) Load(ctx context.Context) (map[string]string, error) {
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read tokens: %w", err)
	}
	tokens := map[string]string{}
	if len(strings.TrimSpace(string(b))) == 0 {
		return tokens, nil
	}
	if err := json.Unmarshal(b, &tokens); err != nil {
		return nil, fmt.Errorf("decode tokens file %s: %w", s.Path, err)
	}
	return tokens, nil
}

func (s *FileStore) Get(ctx context.Context, storeName string) (string, error) {
	tokens, err := s.Load(ctx)
	if err != nil {
		return "", err
	}
	tok, ok := tokens[storeName]
	if !ok || tok == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, storeName)
	}
	return tok, nil
}

func (s *FileStore) Put(ctx context.Context, storeName, accessToken string) error {
	tokens, err := s.Load(ctx)
	if err != nil {
		return err
	}
	tokens[storeName] = accessToken
	return s.save(tokens)
}

func (s *FileStore) Delete(ctx context.Context, storeName string) error {
	tokens, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if _, ok := tokens[storeName]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, storeName)
	}
	delete(tokens, storeName)
	return s.save(tokens)
}

func (s *FileStore) save(tokens map[string]string) error {
	b, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	if err := os.WriteFile(s.Path, b, 0o600); err != nil {
		return fmt.Errorf("write tokens: %w", err)
	}
	return nil
}
