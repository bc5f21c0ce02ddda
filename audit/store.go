// Copyright 2019 James Cote
// All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package audit keeps a SQLite log of tax service calls.  A failed
// call adds a row holding the error details; a later success for the
// same document code stamps success_on on its open failure rows.
package audit // import "github.com/jfcote87/avatax/audit"

import (
	"context"
	"database/sql"
	_ "embed"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/jfcote87/avatax"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// DefaultLimit is used by ListRecords when the filter has no limit.
const DefaultLimit = 100

// Record is a row of the audit log.  SuccessOn is nil for a failure
// that has not been followed by a success.
type Record struct {
	ID             string
	DocCode        string
	FailureDetails []avatax.ErrorDetail
	LoggedOn       time.Time
	SuccessOn      *time.Time
}

// RecordFilter narrows ListRecords.
type RecordFilter struct {
	DocCode      string
	FailuresOnly bool // only failures without a later success
	Limit        int
}

// Store is a SQLite backed avatax.AuditRecorder.  It is safe for
// concurrent use.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens the database at path, creating the table if needed.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite db")
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(err, "ping sqlite db")
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(err, "create schema")
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return errors.New("storage is not configured")
	}
	return nil
}

// RecordSuccess stamps success_on on the open failures of docCode.  When
// there are none a success row is added.  A blank docCode is ignored.
func (s *Store) RecordSuccess(ctx context.Context, docCode string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	docCode = strings.TrimSpace(docCode)
	if docCode == "" {
		return nil
	}
	now := s.now().UTC().UnixMilli()

	res, err := s.sqlDB.ExecContext(ctx, `
UPDATE audit_records
SET success_on = ?
WHERE doc_code = ? AND success_on IS NULL
`, now, docCode)
	if err != nil {
		return errors.Wrap(err, "record success")
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO audit_records (id, doc_code, failure_details, logged_on, success_on)
VALUES (?, ?, '', ?, ?)
`, uuid.NewString(), docCode, now, now)
	if err != nil {
		return errors.Wrap(err, "record success")
	}
	return nil
}

// RecordFailure adds a failure row.  docCode may be blank for calls
// without a document.
func (s *Store) RecordFailure(ctx context.Context, docCode string, details []avatax.ErrorDetail) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO audit_records (id, doc_code, failure_details, logged_on)
VALUES (?, ?, ?, ?)
`,
		uuid.NewString(),
		strings.TrimSpace(docCode),
		encodeDetails(details),
		s.now().UTC().UnixMilli(),
	)
	if err != nil {
		return errors.Wrap(err, "record failure")
	}
	return nil
}

// ListRecords lists newest-first records.
func (s *Store) ListRecords(ctx context.Context, f RecordFilter) ([]Record, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	var where []string
	var args []interface{}
	if f.DocCode != "" {
		where = append(where, "doc_code = ?")
		args = append(args, f.DocCode)
	}
	if f.FailuresOnly {
		where = append(where, "success_on IS NULL AND failure_details != ''")
	}
	query := "SELECT id, doc_code, failure_details, logged_on, success_on FROM audit_records"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY logged_on DESC, rowid DESC LIMIT ?"
	args = append(args, f.Limit)

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list records")
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var rec Record
		var details string
		var loggedOn int64
		var successOn sql.NullInt64
		if err := rows.Scan(&rec.ID, &rec.DocCode, &details, &loggedOn, &successOn); err != nil {
			return nil, errors.Wrap(err, "scan record")
		}
		if rec.FailureDetails, err = decodeDetails(details); err != nil {
			return nil, errors.Wrapf(err, "record %s details", rec.ID)
		}
		rec.LoggedOn = time.UnixMilli(loggedOn).UTC()
		if successOn.Valid {
			tm := time.UnixMilli(successOn.Int64).UTC()
			rec.SuccessOn = &tm
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate records")
	}
	return records, nil
}

func encodeDetails(details []avatax.ErrorDetail) string {
	if len(details) == 0 {
		return "[]"
	}
	var e jx.Encoder
	e.Arr(func(e *jx.Encoder) {
		for _, d := range details {
			e.Obj(func(e *jx.Encoder) {
				e.Field("source", func(e *jx.Encoder) { e.Str(d.Source) })
				e.Field("summary", func(e *jx.Encoder) { e.Str(d.Summary) })
			})
		}
	})
	return e.String()
}

func decodeDetails(s string) ([]avatax.ErrorDetail, error) {
	if s == "" {
		return nil, nil
	}
	var details = make([]avatax.ErrorDetail, 0)
	err := jx.DecodeStr(s).Arr(func(d *jx.Decoder) error {
		var ed avatax.ErrorDetail
		err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "source":
				ed.Source, err = d.Str()
			case "summary":
				ed.Summary, err = d.Str()
			default:
				err = d.Skip()
			}
			return err
		})
		details = append(details, ed)
		return err
	})
	return details, err
}

var _ avatax.AuditRecorder = (*Store)(nil)
