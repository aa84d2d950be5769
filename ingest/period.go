package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Excel stores dates as day counts from this epoch (day 0 = 1899-12-30).
var serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

var (
	yearMonthHeaderRe = regexp.MustCompile(`(\d{4})年(\d{1,2})月`)
	monthHeaderRe     = regexp.MustCompile(`(\d{1,2})月`)
	sheetFiscalRe     = regexp.MustCompile(`(\d{4})年度`)
	sheetFiscalAltRe  = regexp.MustCompile(`[（(]\s*(\d{4})(?:\s*FY)?\s*[）)]`)
	snapshotDateRe    = regexp.MustCompile(`(\d{1,2})月(\d{1,2})日`)
	reportDateRe      = regexp.MustCompile(`\d{8}`)
)

// FiscalYearOf maps a calendar (year, month) to the April-start fiscal year:
// January-March belong to the fiscal year that began the previous April.
func FiscalYearOf(year, month int) int {
	if month >= 4 {
		return year
	}
	return year - 1
}

// ParseMonthColumn recognizes a month column header. It handles
// "2024年4月分" (explicit year), "4月分" (month only), and raw Excel date
// serials. fiscalYear is 0 when the header names no year; the caller
// substitutes the sheet's default. ok is false for unparseable headers,
// which contribute no fact rows.
func ParseMonthColumn(header string) (fiscalYear int, month int, ok bool) {
	s := strings.TrimSpace(header)
	if s == "" {
		return 0, 0, false
	}

	if m := yearMonthHeaderRe.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		mon, _ := strconv.Atoi(m[2])
		if mon >= 1 && mon <= 12 {
			return FiscalYearOf(year, mon), mon, true
		}
	}

	if m := monthHeaderRe.FindStringSubmatch(s); m != nil {
		mon, _ := strconv.Atoi(m[1])
		if mon >= 1 && mon <= 12 {
			return 0, mon, true
		}
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if t, ok := serialToDate(serial); ok {
			return 0, int(t.Month()), true
		}
	}

	return 0, 0, false
}

// serialToDate converts an Excel date serial to a date. The range guard
// keeps plain sales figures from being mistaken for dates.
func serialToDate(serial float64) (time.Time, bool) {
	if serial < 40000 || serial > 60000 {
		return time.Time{}, false
	}
	return serialEpoch.AddDate(0, 0, int(serial)), true
}

// FiscalYearFromSheetName extracts a fiscal year from names like
// "学校別（2024年度）" or "ByEntity (2024 FY)".
func FiscalYearFromSheetName(name string) (int, bool) {
	if m := sheetFiscalRe.FindStringSubmatch(name); m != nil {
		y, _ := strconv.Atoi(m[1])
		return y, true
	}
	if m := sheetFiscalAltRe.FindStringSubmatch(name); m != nil {
		y, _ := strconv.Atoi(m[1])
		return y, true
	}
	return 0, false
}

// ReportDateFromFileName extracts the identifying date of a report from the
// first 8-digit run in its filename.
func ReportDateFromFileName(name string) (time.Time, error) {
	m := reportDateRe.FindString(name)
	if m == "" {
		return time.Time{}, ErrNoReportDate
	}
	t, err := time.Parse("20060102", m)
	if err != nil {
		return time.Time{}, ErrNoReportDate
	}
	return t, nil
}

// SnapshotDateFromSheetName resolves a membership sheet's as-of date from
// names like "会員率（12月27日現在）". The calendar year is inferred so the
// snapshot lands in the same fiscal year as the report date; on any mismatch
// the report date itself is used.
func SnapshotDateFromSheetName(name string, reportDate time.Time) time.Time {
	m := snapshotDateRe.FindStringSubmatch(name)
	if m == nil {
		return reportDate
	}
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])

	year := reportDate.Year()
	if month < 4 && int(reportDate.Month()) >= 4 {
		year++
	} else if month >= 4 && int(reportDate.Month()) < 4 {
		year--
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if int(t.Month()) != month || t.Day() != day {
		return reportDate
	}
	return t
}
