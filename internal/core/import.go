package core

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/JonMunkholm/sheetimport/internal/logging"
)

var errNoRepository = errors.New("no record repository configured")

// ImportSheet commits the valid rows of one sheet.
//
// The sheet is consumed from the session first so that a concurrent row
// deletion or a second import of the same sheet sees ErrSheetNotFound. The
// rows are then persisted in one transaction under the import timeout. If
// persistence fails for any reason, including timeout or cancellation, the
// sheet is put back into the session and a *PersistenceError is returned.
func (s *Service) ImportSheet(ctx context.Context, sessionID, sheetName string) (ImportResult, error) {
	if s.records == nil {
		return ImportResult{}, errNoRepository
	}

	consumed, err := s.sessions.ConsumeSheet(ctx, sessionID, sheetName)
	if err != nil {
		return ImportResult{}, err
	}
	outcome := consumed.Outcome

	ip, ua := ClientFromContext(ctx)
	batch := ImportBatch{
		ID:        uuid.New(),
		SessionID: sessionID,
		SheetName: sheetName,
		Imported:  len(outcome.ValidRows),
		Skipped:   len(outcome.InvalidRows),
		ClientIP:  ip,
		UserAgent: ua,
	}
	logger := logging.WithFields(ctx, "sheet", sheetName, "batch_id", batch.ID)

	result := ImportResult{
		BatchID:       batch.ID,
		SheetName:     sheetName,
		ImportedCount: batch.Imported,
		SkippedCount:  batch.Skipped,
		Records:       []PersistedRecord{},
	}
	if len(outcome.ValidRows) == 0 {
		logger.Info("sheet committed without valid rows", "skipped", batch.Skipped)
		return result, nil
	}

	pctx, cancel := context.WithTimeout(ctx, s.importTimeout)
	defer cancel()

	persisted, err := s.records.InsertMany(pctx, batch, outcome.ValidRows)
	if err != nil {
		// The request context may already be done; restoring must not be.
		restored, rerr := s.sessions.RestoreSheet(context.WithoutCancel(ctx), sessionID, consumed)
		if rerr != nil {
			logger.Error("restore sheet after failed import", "error", rerr)
		}
		logger.Error("import failed", "error", err, "restored", restored)
		return ImportResult{}, &PersistenceError{Sheet: sheetName, Restored: restored, Err: err}
	}

	result.Records = persisted
	logger.Info("sheet imported", "imported", result.ImportedCount, "skipped", result.SkippedCount)
	return result, nil
}
