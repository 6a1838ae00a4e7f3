package core

// importer.go implements the member CSV import.
//
// An import is a single pass:
//  1. Reject the request if there is no file or the name lacks a .csv suffix
//  2. Read the header, then fold every record into (valid members, row errors)
//  3. Persist all valid members with one atomic batch create
//
// Row failures never stop the fold. Anything that fails the request as a
// whole (encoding, size, batch create) leaves the store untouched.

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/JonMunkholm/churchbase/internal/logging"
	"github.com/google/uuid"
)

// ContextCheckInterval is how many records are read between cancellation checks.
const ContextCheckInterval = 500

// MemberBatchCreator stores members all-or-nothing and returns their IDs in
// input order.
type MemberBatchCreator interface {
	CreateMembers(ctx context.Context, members []MemberInput) ([]uuid.UUID, error)
}

// ImportFile is an uploaded file. A nil Body means nothing was uploaded.
type ImportFile struct {
	Name string
	Body io.Reader
}

type ImportOptions struct {
	// DryRun validates every row and reports what would happen without
	// writing anything.
	DryRun bool
}

type ImporterConfig struct {
	MaxFileSize int64
	Timeout     time.Duration
	Limiter     *ImportLimiter
	Metrics     *Metrics
}

type Importer struct {
	store MemberBatchCreator
	cfg   ImporterConfig
}

func NewImporter(store MemberBatchCreator, cfg ImporterConfig) *Importer {
	return &Importer{store: store, cfg: cfg}
}

// Import reads a member CSV and creates one member per valid row. The
// returned error is a request-level failure; row problems are reported in
// ImportOutcome.Errors.
func (im *Importer) Import(ctx context.Context, file ImportFile, opts ImportOptions) (ImportOutcome, error) {
	start := time.Now()
	outcome := ImportOutcome{FileName: file.Name, DryRun: opts.DryRun}
	logger := logging.WithFields(ctx, "file", file.Name, "dry_run", opts.DryRun)

	if err := checkImportFile(file); err != nil {
		im.cfg.Metrics.observeImport("rejected", outcome, time.Since(start))
		return outcome, err
	}

	if im.cfg.Limiter != nil {
		if err := im.cfg.Limiter.Acquire(ctx); err != nil {
			im.cfg.Metrics.observeImport("rejected", outcome, time.Since(start))
			return outcome, err
		}
		defer im.cfg.Limiter.Release()
	}

	if im.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, im.cfg.Timeout)
		defer cancel()
	}

	body, counter := WrapForImport(file.Body, im.cfg.MaxFileSize)
	valid, rowErrs, err := foldMemberRows(ctx, body)
	if err != nil {
		im.cfg.Metrics.observeImport("failed", outcome, time.Since(start))
		logger.Warn("member import aborted", "error", err, "bytes", counter.BytesRead)
		return outcome, err
	}

	if !opts.DryRun && len(valid) > 0 {
		ids, err := im.store.CreateMembers(ctx, valid)
		if err != nil {
			im.cfg.Metrics.observeImport("failed", outcome, time.Since(start))
			logger.Error("member batch create failed", "error", err, "valid_rows", len(valid))
			return outcome, fmt.Errorf("create members: %w", err)
		}
		outcome.Created = ids
	}
	outcome.Valid = len(valid)
	outcome.Errors = rowErrs

	outcome.Duration = time.Since(start)
	result := "ok"
	if opts.DryRun {
		result = "dry_run"
	}
	im.cfg.Metrics.observeImport(result, outcome, outcome.Duration)

	logger.Info("member import finished",
		"created", outcome.CreatedCount(),
		"valid_rows", outcome.Valid,
		"errors", outcome.ErrorCount(),
		"bytes", counter.BytesRead,
		"duration_ms", outcome.Duration.Milliseconds(),
	)
	return outcome, nil
}

func checkImportFile(file ImportFile) error {
	if file.Body == nil || strings.TrimSpace(file.Name) == "" {
		return ErrNoFile
	}
	if !strings.HasSuffix(strings.ToLower(file.Name), ".csv") {
		return ErrNotCSV
	}
	return nil
}

// foldMemberRows validates every record after the header. It returns the
// valid members in file order and one RowError per rejected record. The
// error is non-nil only for failures of the file as a whole.
func foldMemberRows(ctx context.Context, r io.Reader) ([]MemberInput, []RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	idx := MakeHeaderIndex(header)

	var (
		valid   []MemberInput
		rowErrs []RowError
	)

	for n := 0; ; n++ {
		if n%ContextCheckInterval == 0 && ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				// Encoding, size and I/O failures end the import.
				return nil, nil, err
			}
			rowErrs = append(rowErrs, RowError{
				Row:     parseErr.StartLine,
				Message: "Error processing row - " + parseErr.Err.Error(),
			})
			continue
		}

		line, _ := reader.FieldPos(0)
		member, rowErr := processRow(record, idx)
		if rowErr != "" {
			rowErrs = append(rowErrs, RowError{Row: line, Message: rowErr})
			continue
		}
		valid = append(valid, member)
	}

	return valid, rowErrs, nil
}

// processRow validates one record. A panic while handling the record is
// reported as a row error like any other fault.
func processRow(record []string, idx HeaderIndex) (member MemberInput, rowErr string) {
	defer func() {
		if p := recover(); p != nil {
			member = MemberInput{}
			rowErr = fmt.Sprintf("Error processing row - %v", p)
		}
	}()

	fields, err := RowFields(record, idx)
	if err != nil {
		return MemberInput{}, "Error processing row - " + err.Error()
	}

	member, err = ValidateMemberRow(fields)
	if err != nil {
		return MemberInput{}, err.Error()
	}
	return member, ""
}
