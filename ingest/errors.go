package ingest

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrHeaderNotFound means a sheet carried none of the expected header
// keywords. Recoverable: the sheet is skipped and the import continues.
var ErrHeaderNotFound = errors.New("header row not found")

// ErrNoReportDate means the source filename carries no 8-digit YYYYMMDD run.
var ErrNoReportDate = errors.New("no report date in filename")

// DocumentFormatError means the input could not be opened as a workbook.
// Fatal for that import; nothing is committed.
type DocumentFormatError struct {
	Path string
	Err  error
}

func (e *DocumentFormatError) Error() string {
	return fmt.Sprintf("not a readable workbook: %s: %v", e.Path, e.Err)
}

func (e *DocumentFormatError) Unwrap() error { return e.Err }

// UnmatchedSchoolError is returned in strict mode when one or more row school
// names could not be resolved. The whole import is rolled back; Names lets
// the operator correct the reference mapping and retry.
type UnmatchedSchoolError struct {
	Names []string
}

func (e *UnmatchedSchoolError) Error() string {
	return fmt.Sprintf("unmatched school names: %s", strings.Join(e.Names, ", "))
}

// DuplicateReportError is returned when a report for the same identifying
// date already exists and the caller asked for rejection instead of
// supersession.
type DuplicateReportError struct {
	ReportID   uint
	ReportDate time.Time
}

func (e *DuplicateReportError) Error() string {
	return fmt.Sprintf("report for %s already imported (id=%d)", e.ReportDate.Format("2006-01-02"), e.ReportID)
}
