package session

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/napryag/clinic_booking_bot/pkg/utils/errs"
)

type pgxConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

type Postgres struct{ pool pgxConn }

func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errs.New("failed to create pg pool").Wrap(err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errs.New("failed to ping postgres").Wrap(err)
	}
	return &Postgres{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool (or a pgxmock pool in tests).
func NewPostgresWithPool(pool pgxConn) *Postgres {
	return &Postgres{pool: pool}
}

func (r *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS session_kv (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return errs.New("failed to create session_kv").Wrap(err)
	}
	return nil
}

func (r *Postgres) Get(ctx context.Context, key string) (string, error) {
	var v string
	err := r.pool.QueryRow(ctx, `SELECT value FROM session_kv WHERE key=$1`, key).Scan(&v)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", errs.New("failed to read session key").Arg("key", key).Wrap(err)
	}
	return v, nil
}

func (r *Postgres) Set(ctx context.Context, key, value string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO session_kv (key, value, updated_at)
		VALUES ($1,$2,now())
		ON CONFLICT (key) DO UPDATE
		   SET value=EXCLUDED.value, updated_at=now()
	`, key, value)
	if err != nil {
		return errs.New("failed to write session key").Arg("key", key).Wrap(err)
	}
	return nil
}

func (r *Postgres) Clear(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if _, err := r.pool.Exec(ctx, `DELETE FROM session_kv WHERE key = ANY($1)`, keys); err != nil {
		return errs.New("failed to clear session keys").Wrap(err)
	}
	return nil
}

func (r *Postgres) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return errs.New("postgres ping failed").Wrap(err)
	}
	return nil
}

func (r *Postgres) Close() {
	r.pool.Close()
}
