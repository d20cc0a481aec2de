package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const insertBatch = `
INSERT INTO import_batches (id, session_id, sheet_name, imported, skipped, client_ip, user_agent, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

type InsertBatchParams struct {
	ID        pgtype.UUID
	SessionID string
	SheetName string
	Imported  int32
	Skipped   int32
	ClientIP  string
	UserAgent string
	CreatedAt pgtype.Timestamptz
}

func (q *Queries) InsertBatch(ctx context.Context, arg InsertBatchParams) error {
	_, err := q.db.Exec(ctx, insertBatch,
		arg.ID, arg.SessionID, arg.SheetName, arg.Imported, arg.Skipped, arg.ClientIP, arg.UserAgent, arg.CreatedAt)
	return err
}

// ImportedRecord is one row of imported_records.
type ImportedRecord struct {
	ID        pgtype.UUID
	BatchID   pgtype.UUID
	SheetName string
	Name      string
	Amount    float64
	Date      pgtype.Date
	Verified  bool
	SourceRow int32
	CreatedAt pgtype.Timestamptz
}

var recordColumns = []string{
	"id", "batch_id", "sheet_name", "name", "amount", "date", "verified", "source_row", "created_at",
}

// CopyRecords bulk-loads rows with the COPY protocol.
func (q *Queries) CopyRecords(ctx context.Context, rows []ImportedRecord) (int64, error) {
	return q.db.CopyFrom(ctx, pgx.Identifier{"imported_records"}, recordColumns,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{r.ID, r.BatchID, r.SheetName, r.Name, r.Amount, r.Date, r.Verified, r.SourceRow, r.CreatedAt}, nil
		}))
}

const listRecords = `
SELECT id, batch_id, sheet_name, name, amount::float8, date, verified, source_row, created_at
FROM imported_records
ORDER BY created_at DESC, id
LIMIT $1 OFFSET $2
`

func (q *Queries) ListRecords(ctx context.Context, limit, offset int32) ([]ImportedRecord, error) {
	rows, err := q.db.Query(ctx, listRecords, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []ImportedRecord{}
	for rows.Next() {
		var i ImportedRecord
		if err := rows.Scan(
			&i.ID, &i.BatchID, &i.SheetName, &i.Name, &i.Amount,
			&i.Date, &i.Verified, &i.SourceRow, &i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countRecords = `SELECT COUNT(*) FROM imported_records`

func (q *Queries) CountRecords(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countRecords).Scan(&count)
	return count, err
}

const deleteRecord = `DELETE FROM imported_records WHERE id = $1`

// DeleteRecord returns the number of rows removed.
func (q *Queries) DeleteRecord(ctx context.Context, id pgtype.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteRecord, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func toTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
