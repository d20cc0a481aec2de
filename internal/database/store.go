package database

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/sheetimport/internal/config"
	"github.com/JonMunkholm/sheetimport/internal/core"
)

//go:embed schema.sql
var schemaSQL string

// Store is the PostgreSQL RecordRepository.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ core.RecordRepository = (*Store)(nil)

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, now: time.Now}
}

// Connect opens a pool sized from cfg and pings it.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Migrate creates the tables when they do not exist.
func Migrate(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	slog.Info("database schema ready")
	return nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// InsertMany writes the batch row and all records in one transaction. Either
// every record is stored or none is.
func (s *Store) InsertMany(ctx context.Context, batch core.ImportBatch, records []core.ValidatedRecord) ([]core.PersistedRecord, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // no-op after commit

	q := New(s.pool).WithTx(tx)
	createdAt := s.now().UTC()

	if err := q.InsertBatch(ctx, InsertBatchParams{
		ID:        toPgUUID(batch.ID),
		SessionID: batch.SessionID,
		SheetName: batch.SheetName,
		Imported:  int32(batch.Imported),
		Skipped:   int32(batch.Skipped),
		ClientIP:  batch.ClientIP,
		UserAgent: batch.UserAgent,
		CreatedAt: toTimestamptz(createdAt),
	}); err != nil {
		return nil, fmt.Errorf("insert batch: %w", err)
	}

	rows := make([]ImportedRecord, len(records))
	out := make([]core.PersistedRecord, len(records))
	for i, r := range records {
		id := uuid.New()
		rows[i] = ImportedRecord{
			ID:        toPgUUID(id),
			BatchID:   toPgUUID(batch.ID),
			SheetName: batch.SheetName,
			Name:      r.Name,
			Amount:    r.Amount,
			Date:      pgtype.Date{Time: r.Date, Valid: true},
			Verified:  r.Verified,
			SourceRow: int32(r.RowNumber),
			CreatedAt: toTimestamptz(createdAt),
		}
		out[i] = core.PersistedRecord{
			ID:        id,
			BatchID:   batch.ID,
			SheetName: batch.SheetName,
			Name:      r.Name,
			Amount:    r.Amount,
			Date:      r.Date,
			Verified:  r.Verified,
			SourceRow: r.RowNumber,
			CreatedAt: createdAt,
		}
	}

	n, err := q.CopyRecords(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("copy records: %w", err)
	}
	if n != int64(len(rows)) {
		return nil, fmt.Errorf("copy records: wrote %d of %d rows", n, len(rows))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}
	return out, nil
}

// ListRecords returns one page of records, newest first, and the total count.
func (s *Store) ListRecords(ctx context.Context, limit, offset int) ([]core.PersistedRecord, int64, error) {
	q := New(s.pool)

	total, err := q.CountRecords(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count records: %w", err)
	}
	rows, err := q.ListRecords(ctx, int32(limit), int32(offset))
	if err != nil {
		return nil, 0, fmt.Errorf("list records: %w", err)
	}

	out := make([]core.PersistedRecord, len(rows))
	for i, r := range rows {
		out[i] = toPersisted(r)
	}
	return out, total, nil
}

func (s *Store) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	n, err := New(s.pool).DeleteRecord(ctx, toPgUUID(id))
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrRecordNotFound
	}
	return nil
}

func toPersisted(r ImportedRecord) core.PersistedRecord {
	return core.PersistedRecord{
		ID:        uuid.UUID(r.ID.Bytes),
		BatchID:   uuid.UUID(r.BatchID.Bytes),
		SheetName: r.SheetName,
		Name:      r.Name,
		Amount:    r.Amount,
		Date:      r.Date.Time,
		Verified:  r.Verified,
		SourceRow: int(r.SourceRow),
		CreatedAt: r.CreatedAt.Time,
	}
}

func toPgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}
