package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"companion-connect/internal/domain/animals"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	DefaultPingTimeout  = 3 * time.Second
	DefaultMaxOpenConns = 10
)

// Config describe el backend relacional de la tabla animals.
type Config struct {
	DSN      string
	PageSize int

	// PingTimeout acota la verificación inicial (y la creación del schema).
	PingTimeout  time.Duration
	MaxOpenConns int
}

// Open conecta, verifica la conexión y deja creada la tabla animals.
// Los errores de conexión salen como ErrStoreUnavailable.
func Open(ctx context.Context, cfg Config) (*AnimalsRepo, error) {
	db, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	repo := NewAnimalsRepo(db, cfg.PageSize)

	ctx, cancel := context.WithTimeout(ctx, pingTimeout(cfg))
	defer cancel()
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ensure schema: %w", err)
	}
	return repo, nil
}

func openDB(ctx context.Context, cfg Config) (*sql.DB, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, fmt.Errorf("postgres: empty DSN")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, animals.Unavailable(fmt.Errorf("postgres: open: %w", err))
	}

	// el scan usa una conexión por página y el resto son lecturas/escrituras por id:
	// pocas conexiones alcanzan
	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = DefaultMaxOpenConns
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(max(1, maxOpen/2))
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, pingTimeout(cfg))
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, animals.Unavailable(fmt.Errorf("postgres: ping: %w", err))
	}
	return db, nil
}

func pingTimeout(cfg Config) time.Duration {
	if cfg.PingTimeout > 0 {
		return cfg.PingTimeout
	}
	return DefaultPingTimeout
}

// Close libera el pool.
func (r *AnimalsRepo) Close() error {
	return r.db.Close()
}
