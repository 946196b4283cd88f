package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBPool matches the methods from *pgxpool.Pool that we use.
// This allows us to mock the database in tests.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type Postgres struct {
	pool DBPool
}

func NewPostgres(pool DBPool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Load(ctx context.Context, namespace, key string) ([]byte, error) {
	var value []byte
	row := p.pool.QueryRow(ctx, `SELECT value FROM storefront_kv WHERE namespace=$1 AND key=$2`, namespace, key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load %s/%s: %w", namespace, key, err)
	}
	return value, nil
}

func (p *Postgres) Save(ctx context.Context, namespace, key string, value []byte) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO storefront_kv(namespace, key, value)
		VALUES($1, $2, $3)
		ON CONFLICT (namespace, key) DO UPDATE SET value=EXCLUDED.value, updated_at=now()
	`, namespace, key, value)
	if err != nil {
		return fmt.Errorf("save %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, namespace, key string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM storefront_kv WHERE namespace=$1 AND key=$2`, namespace, key); err != nil {
		return fmt.Errorf("delete %s/%s: %w", namespace, key, err)
	}
	return nil
}
