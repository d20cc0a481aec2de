package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/sheetimport/internal/logging"
)

// DefaultImportTimeout bounds the persistence call of one sheet import.
const DefaultImportTimeout = 30 * time.Second

// SessionStore owns the validation sessions. Implementations serialize all
// operations on one session id and return deep copies.
type SessionStore interface {
	// Replace overwrites the whole session and assigns a new version.
	Replace(ctx context.Context, sessionID string, outcomes []SheetOutcome) (ValidationSession, error)
	Get(ctx context.Context, sessionID string) (ValidationSession, error)
	// RemoveRow deletes a row from the valid or invalid list of a sheet.
	RemoveRow(ctx context.Context, sessionID, sheetName string, rowNumber int) (SheetOutcome, error)
	// ConsumeSheet returns the sheet and removes it in one step.
	ConsumeSheet(ctx context.Context, sessionID, sheetName string) (ConsumedSheet, error)
	// RestoreSheet puts a consumed sheet back if the session still has the
	// same version and no sheet of that name. It reports whether it did.
	RestoreSheet(ctx context.Context, sessionID string, consumed ConsumedSheet) (bool, error)
	Discard(ctx context.Context, sessionID string) error
}

// RecordRepository persists committed rows.
type RecordRepository interface {
	// InsertMany writes the batch and its records atomically.
	InsertMany(ctx context.Context, batch ImportBatch, records []ValidatedRecord) ([]PersistedRecord, error)
	ListRecords(ctx context.Context, limit, offset int) ([]PersistedRecord, int64, error)
	// DeleteRecord returns ErrRecordNotFound when id does not exist.
	DeleteRecord(ctx context.Context, id uuid.UUID) error
}

// ServiceConfig tunes a Service. Zero values select defaults.
type ServiceConfig struct {
	ImportTimeout time.Duration
	Location      *time.Location
	Now           func() time.Time
}

// Service is the entry point used by the HTTP layer and the CLI.
type Service struct {
	sessions SessionStore
	records  RecordRepository

	importTimeout time.Duration
	loc           *time.Location
	now           func() time.Time
}

// NewService creates a Service. records may be nil for callers that only
// validate.
func NewService(sessions SessionStore, records RecordRepository, cfg ServiceConfig) *Service {
	s := &Service{
		sessions:      sessions,
		records:       records,
		importTimeout: cfg.ImportTimeout,
		loc:           cfg.Location,
		now:           cfg.Now,
	}
	if s.importTimeout <= 0 {
		s.importTimeout = DefaultImportTimeout
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// CurrentPeriod is the reference month at the time of the call. Callers
// capture it once per request and pass it into validation.
func (s *Service) CurrentPeriod() Period {
	return PeriodOf(s.now().In(s.loc))
}

// PreviewSheet validates one sheet and makes it the session's working set.
func (s *Service) PreviewSheet(ctx context.Context, sessionID, sheetName string, rows []RawRow, headers []string, period Period) (SheetOutcome, error) {
	outcome := ValidateSheet(sheetName, headers, rows, period)
	if _, err := s.sessions.Replace(ctx, sessionID, []SheetOutcome{outcome}); err != nil {
		return SheetOutcome{}, fmt.Errorf("store preview: %w", err)
	}
	return outcome.Clone(), nil
}

// PreviewWorkbook validates every sheet of a decoded upload and replaces the
// session with the result.
func (s *Service) PreviewWorkbook(ctx context.Context, sessionID string, wb Workbook, period Period) (ValidationSession, error) {
	outcomes := ValidateWorkbook(wb, period)

	sess, err := s.sessions.Replace(ctx, sessionID, outcomes)
	if err != nil {
		return ValidationSession{}, fmt.Errorf("store preview: %w", err)
	}

	valid, invalid := 0, 0
	for _, o := range outcomes {
		valid += len(o.ValidRows)
		invalid += len(o.InvalidRows)
	}
	logging.FromContext(ctx).Info("preview stored",
		"sheets", len(outcomes),
		"valid_rows", valid,
		"invalid_rows", invalid,
		"period", period.String(),
	)
	return sess, nil
}

// DeleteRow removes one row from a sheet of the session.
func (s *Service) DeleteRow(ctx context.Context, sessionID, sheetName string, rowNumber int) (SheetOutcome, error) {
	outcome, err := s.sessions.RemoveRow(ctx, sessionID, sheetName, rowNumber)
	if err != nil {
		return SheetOutcome{}, err
	}
	logging.FromContext(ctx).Debug("row removed", "sheet", sheetName, "row", rowNumber)
	return outcome, nil
}

// ListSession returns a copy of the session.
func (s *Service) ListSession(ctx context.Context, sessionID string) (ValidationSession, error) {
	return s.sessions.Get(ctx, sessionID)
}

// Sheet returns a copy of one sheet of the session.
func (s *Service) Sheet(ctx context.Context, sessionID, sheetName string) (SheetOutcome, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return SheetOutcome{}, err
	}
	i := sess.SheetIndex(sheetName)
	if i < 0 {
		return SheetOutcome{}, SheetNotFound(sheetName)
	}
	return sess.Sheets[i], nil
}

// DiscardSession drops the working set.
func (s *Service) DiscardSession(ctx context.Context, sessionID string) error {
	return s.sessions.Discard(ctx, sessionID)
}

// ListRecords pages through persisted records, newest first.
func (s *Service) ListRecords(ctx context.Context, page, limit int) (RecordPage, error) {
	if s.records == nil {
		return RecordPage{}, errNoRepository
	}
	p := NewPageRequest(page, limit)
	recs, total, err := s.records.ListRecords(ctx, p.Limit, p.Offset())
	if err != nil {
		return RecordPage{}, fmt.Errorf("list records: %w", err)
	}
	return NewRecordPage(recs, p, total), nil
}

// DeleteRecord removes one persisted record.
func (s *Service) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	if s.records == nil {
		return errNoRepository
	}
	if err := s.records.DeleteRecord(ctx, id); err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	logging.FromContext(ctx).Info("record deleted", "record_id", id)
	return nil
}
