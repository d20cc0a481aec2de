// Package core holds the validation and reconciliation engine for
// spreadsheet imports.
//
// It has no knowledge of HTTP, file formats or the database engine. Decoded
// sheets come in as [Workbook] values, the per-session working set lives
// behind [SessionStore], and committed rows leave through [RecordRepository].
//
// # Validation
//
// [ValidateSheet] checks the sheet preconditions (headers present, required
// columns Name, Date and Amount, at least one data row) and then runs
// [ValidateRow] over every row with rowNumber = index + 2. Each rule is
// evaluated on its own so a rejected row carries every reason. The reference
// month is always a [Period] argument; nothing in this package reads the
// clock during validation.
//
// # Sessions
//
// The outcome of a preview is stored per session id. Every store operation
// on one id is mutually exclusive, reads return deep copies, and different
// ids never block each other.
//
// # Import
//
// [Service.ImportSheet] consumes the sheet from the session, persists its
// valid rows in one transaction under a timeout, and on failure puts the
// sheet back so the import can be retried.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with [MapError]. Codes
// are grouped by prefix: SES (session), REC (persisted records), IMP
// (import), FILE (upload and decode), DB (database), UPL (request lifecycle)
// and RATE.
package core
