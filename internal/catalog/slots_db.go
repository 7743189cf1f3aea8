package catalog

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

// PostgresSlots keeps slots as rows of catalog_slots.
type PostgresSlots struct {
	db *sqlx.DB
}

// OpenPostgresSlots connects through the pgx stdlib driver.
func OpenPostgresSlots(ctx context.Context, dsn string) (*PostgresSlots, error) {
	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}

	s := NewPostgresSlots(db)
	if err := s.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}
	return s, nil
}

func NewPostgresSlots(db *sqlx.DB) *PostgresSlots {
	return &PostgresSlots{db: db}
}

func (s *PostgresSlots) SetPool(maxOpen, maxIdle int, maxLifetime time.Duration) {
	s.db.SetMaxOpenConns(maxOpen)
	s.db.SetMaxIdleConns(maxIdle)
	s.db.SetConnMaxLifetime(maxLifetime)
}

func (s *PostgresSlots) Close() error {
	return s.db.Close()
}

func (s *PostgresSlots) EnsureSchema(ctx context.Context) error {
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS catalog_slots (
				key        TEXT PRIMARY KEY,
				value      JSONB NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)
		`)
		return err
	})
	return errors.Wrap(err, "create catalog_slots")
}

func (s *PostgresSlots) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresSlots) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.GetContext(ctx, &value, `
			SELECT value
			FROM catalog_slots
			WHERE key = $1
		`, key)
	})

	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "select slot %s", key)
	}
	return value, true, nil
}

func (s *PostgresSlots) Put(ctx context.Context, key string, value []byte) error {
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO catalog_slots (key, value, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (key) DO UPDATE
			SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
		`, key, string(value))
		return err
	})
	return errors.Wrapf(err, "upsert slot %s", key)
}

func (s *PostgresSlots) Delete(ctx context.Context, key string) error {
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM catalog_slots WHERE key = $1`, key)
		return err
	})
	return errors.Wrapf(err, "delete slot %s", key)
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
