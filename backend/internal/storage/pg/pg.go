package pg

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/ebrain/board/backend/internal/service"
	"github.com/ebrain/board/shared/config"
	"github.com/ebrain/board/shared/logger"
	sharedpg "github.com/ebrain/board/shared/storage/pg"

	_ "github.com/lib/pq"
)

//go:embed migrations/init.sql
var initSQL string

// Storage runs every query through q, which is the pool or the current transaction.
type Storage struct {
	db   *sql.DB
	q    sharedpg.Querier
	inTx bool
}

// Ensure Storage struct implements the interface at compile time.
var _ service.Storage = (*Storage)(nil)

func New(ctx context.Context, cfg config.Pg, connCfg sharedpg.ConnectionConfig) (*Storage, error) {
	logger.Log.Info("connecting to db", "host", cfg.Host, "dbname", cfg.Dbname)
	db, err := sharedpg.Connect(ctx, cfg, connCfg)
	if err != nil {
		return nil, err
	}
	logger.Log.Info("successfully connected to db")
	return NewWithDB(db), nil
}

func NewWithDB(db *sql.DB) *Storage {
	return &Storage{db: db, q: db}
}

func (s *Storage) Cleanup() error {
	return s.db.Close()
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate applies the embedded schema. It is safe to run repeatedly.
func (s *Storage) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, initSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Storage) WithTx(ctx context.Context, fn func(tx service.Storage) error) error {
	if s.inTx {
		return fn(s)
	}
	return sharedpg.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return fn(&Storage{db: s.db, q: tx, inTx: true})
	})
}

func nullableId(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func nullableTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
