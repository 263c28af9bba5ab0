package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps tokens in the store_tokens table (see migrations/).
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Load(ctx context.Context) (map[string]string, error) {
	const q = `SELECT store_name, access_token FROM store_tokens ORDER BY store_name`
	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tokens := map[string]string{}
	for rows.Next() {
		var name, tok string
		if err := rows.Scan(&name, &tok); err != nil {
			return nil, err
		}
		tokens[name] = tok
	}
	return tokens, rows.Err()
}

func (s *PostgresStore) Get(ctx context.Context, storeName string) (string, error) {
	const q = `SELECT access_token FROM store_tokens WHERE store_name = $1`
	var tok string
	if err := s.db.QueryRow(ctx, q, storeName).Scan(&tok); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, storeName)
		}
		return "", err
	}
	return tok, nil
}

func (s *PostgresStore) Put(ctx context.Context, storeName, accessToken string) error {
	const q = `
INSERT INTO store_tokens (store_name, access_token, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (store_name) DO UPDATE SET
  access_token = EXCLUDED.access_token,
  updated_at = NOW()
`
	_, err := s.db.Exec(ctx, q, storeName, accessToken)
	return err
}

func (s *PostgresStore) Delete(ctx context.Context, storeName string) error {
	const q = `DELETE FROM store_tokens WHERE store_name = $1`
	tag, err := s.db.Exec(ctx, q, storeName)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, storeName)
	}
	return nil
}
