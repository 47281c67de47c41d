package database

import (
	"context"
	"fmt"
	"time"

	tx "github.com/Thiht/transactor/pgx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultConnAttempts = 3

// Postgres wraps the pgx pool together with the transactor used by the
// repositories to compose multi-statement writes.
type Postgres struct {
	Pool       *pgxpool.Pool
	Transactor *tx.Transactor
	DBGetter   tx.DBGetter

	maxPoolSize       int32
	connTimeout       time.Duration
	healthCheckPeriod time.Duration
	isolation         pgx.TxIsoLevel
}

// Option configures the pool before it is created.
type Option func(*Postgres)

func MaxPoolSize(size int32) Option {
	return func(p *Postgres) { p.maxPoolSize = size }
}

func ConnTimeout(seconds int) Option {
	return func(p *Postgres) { p.connTimeout = time.Duration(seconds) * time.Second }
}

func HealthCheckPeriod(minutes int) Option {
	return func(p *Postgres) { p.healthCheckPeriod = time.Duration(minutes) * time.Minute }
}

func Isolation(level pgx.TxIsoLevel) Option {
	return func(p *Postgres) { p.isolation = level }
}

// New connects to the database and prepares the transactor.
func New(databaseURL string, opts ...Option) (*Postgres, error) {
	pg := &Postgres{
		connTimeout: 5 * time.Second,
		isolation:   pgx.ReadCommitted,
	}
	for _, opt := range opts {
		opt(pg)
	}

	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}

	if pg.maxPoolSize > 0 {
		poolConfig.MaxConns = pg.maxPoolSize
	}
	poolConfig.ConnConfig.ConnectTimeout = pg.connTimeout
	if pg.healthCheckPeriod > 0 {
		poolConfig.HealthCheckPeriod = pg.healthCheckPeriod
	}
	if pg.isolation != "" {
		poolConfig.ConnConfig.RuntimeParams["default_transaction_isolation"] = string(pg.isolation)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pg.connTimeout)
	defer cancel()

	for attempt := 1; attempt <= defaultConnAttempts; attempt++ {
		pg.Pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			err = pg.Pool.Ping(ctx)
		}
		if err == nil {
			break
		}
		if attempt == defaultConnAttempts {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		time.Sleep(time.Second)
	}

	pg.Transactor, pg.DBGetter = tx.NewTransactorFromPool(pg.Pool)

	return pg, nil
}

// Close releases the pool.
func (p *Postgres) Close() {
	if p.Pool != nil {
		p.Pool.Close()
	}
}
