package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/ledger"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Row is one archived submission keyed by player and calendar day, which
// is the same uniqueness the ledger enforces. Replays and edits therefore
// fold into an update of the existing row.
type Row struct {
	PlayerID   string
	Day        time.Time
	Name       string
	Seconds    int64
	RecordedAt time.Time
	Retro      bool
}

// RowFromSubmission derives the archive row, computing the calendar day in
// the reference timezone.
func RowFromSubmission(sub ledger.Submission, loc *time.Location) Row {
	day, _ := ledger.DayWindow(sub.RecordedAt.In(loc))
	return Row{
		PlayerID:   sub.PlayerID,
		Day:        day,
		Name:       sub.Name,
		Seconds:    sub.Seconds,
		RecordedAt: sub.RecordedAt,
		Retro:      sub.Retro,
	}
}

// Writer defines the interface for writing archive batches
type Writer interface {
	WriteBatch(ctx context.Context, rows []Row) error
	Close() error
}

// PGWriter implements Writer using pgxpool
type PGWriter struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// PostgresConfig holds database connection settings
type PostgresConfig struct {
	URI      string
	MinConns int32
	MaxConns int32
}

// NewPGWriter creates a new PGWriter instance
func NewPGWriter(ctx context.Context, cfg PostgresConfig, l *logger.Logger) (*PGWriter, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PGWriter{pool: pool, logger: l}, nil
}

// WriteBatch upserts the rows in one transaction
func (w *PGWriter) WriteBatch(ctx context.Context, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const query = `
		INSERT INTO submissions (player_id, day, name, seconds, recorded_at, retro)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (player_id, day) DO UPDATE SET
			name = EXCLUDED.name,
			seconds = EXCLUDED.seconds,
			recorded_at = EXCLUDED.recorded_at,
			retro = EXCLUDED.retro
		RETURNING (xmax = 0) AS inserted
	`
	for _, r := range rows {
		var inserted bool
		err := tx.QueryRow(ctx, query, r.PlayerID, r.Day, r.Name, r.Seconds, r.RecordedAt, r.Retro).Scan(&inserted)
		if err != nil {
			return err
		}

		status := "updated"
		if inserted {
			status = "inserted"
		}
		w.logger.Debug("archive upsert complete",
			zap.String("player_id", r.PlayerID),
			zap.String("status", status))
	}
	return tx.Commit(ctx)
}

// Close closes the pool
func (w *PGWriter) Close() error {
	w.pool.Close()
	return nil
}
