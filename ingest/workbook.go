package ingest

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

// Workbook wraps one spreadsheet document and exposes its sheets as raw
// row/column grids. No sheet-name semantics live here; classification is the
// orchestrator's job.
type Workbook struct {
	f    *excelize.File
	path string
}

func OpenWorkbook(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &DocumentFormatError{Path: path, Err: err}
	}
	return &Workbook{f: f, path: path}, nil
}

func (w *Workbook) SheetNames() []string {
	return w.f.GetSheetList()
}

// Rows returns the sheet as a grid of raw cell values. Raw mode keeps date
// headers as their serial numbers instead of locale-formatted strings.
func (w *Workbook) Rows(sheet string) ([][]string, error) {
	return w.f.GetRows(sheet, excelize.Options{RawCellValue: true})
}

func (w *Workbook) Close() error {
	return w.f.Close()
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// SheetType is the semantic role of one sheet, recognized by substring match
// on the sheet name.
type SheetType string

const (
	SheetUnknown     SheetType = "unknown"
	SheetSummary     SheetType = "summary"      // company-wide period totals
	SheetSchoolSales SheetType = "school_sales" // per-school monthly sales
	SheetEventSales  SheetType = "event_sales"  // per-event monthly sales
	SheetMemberRate  SheetType = "member_rate"  // membership snapshot
)

// ClassifySheet recognizes both the Japanese labels the reports use and
// their romanized equivalents. Year-over-year comparison sheets are derived
// views and are never ingested.
func ClassifySheet(name string) SheetType {
	n := strings.ToLower(name)
	has := func(subs ...string) bool {
		for _, s := range subs {
			if strings.Contains(n, s) {
				return true
			}
		}
		return false
	}

	switch {
	case has("比較", "comparison"):
		return SheetUnknown
	case has("学校別", "byentity", "by-entity", "by entity"):
		return SheetSchoolSales
	case has("イベント別", "byevent", "by-event", "by event"):
		return SheetEventSales
	case has("会員率", "membership"):
		return SheetMemberRate
	case has("売上", "summary"):
		return SheetSummary
	default:
		return SheetUnknown
	}
}
