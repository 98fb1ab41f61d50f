package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

const DefaultPostgreSQLPort = 5432

type Options struct {
	User     string
	Password string
	Host     string
	Port     int
	DBName   string
	SSLMode  string
}

type DB struct {
	pool *pgxpool.Pool
	opts *Options
}

func New(ctx context.Context, opts *Options) (*DB, error) {
	if err := validateOptions(opts); err != nil {
		return nil, errors.Wrap(err, "invalid options")
	}

	dsn := fmt.Sprintf("user=%s password=%s host=%s port=%d dbname=%s sslmode=%s",
		opts.User, opts.Password, opts.Host, opts.Port, opts.DBName, opts.SSLMode)

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse database connection string")
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create connection pool")
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return &DB{
		pool: pool,
		opts: opts,
	}, nil
}

func (d *DB) Close() {
	d.pool.Close()
}

func validateOptions(opts *Options) error {
	if opts == nil {
		return errors.New("options cannot be nil")
	}

	if opts.User == "" {
		return errors.New("user cannot be empty")
	}

	if opts.Password == "" {
		return errors.New("password cannot be empty")
	}

	if opts.Host == "" {
		return errors.New("host cannot be empty")
	}

	if opts.Port <= 0 {
		opts.Port = DefaultPostgreSQLPort
	}

	if opts.SSLMode == "" {
		opts.SSLMode = "disable"
	}

	return nil
}
