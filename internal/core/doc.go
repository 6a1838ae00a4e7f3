// Package core holds churchbase's business logic: the member CSV import,
// exports, admin actions, reports and the retention job. It has no HTTP
// dependencies; handlers call into a [Service].
//
// # Member import
//
// [Importer.Import] takes an uploaded file through these steps:
//
//  1. Reject a missing file ([ErrNoFile]) or a name without .csv ([ErrNotCSV])
//  2. Wait for a slot from the [ImportLimiter]
//  3. Strip a UTF-8 BOM and fail on invalid UTF-8 ([ErrInvalidEncoding])
//  4. Validate each row with [ValidateMemberRow], collecting [RowError]s
//  5. Create every valid member in one transaction through a [MemberBatchCreator]
//
// Rows are numbered by physical line with the header on line 1, so the
// first data row is row 2. [ImportNotices] turns the outcome into the
// success and warning messages shown after the upload.
//
// # Error handling
//
// Technical errors are mapped to user-facing messages with [MapError].
// Each message has a short code (FILE003, DB001, ...) for support.
package core
