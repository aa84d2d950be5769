package ingest

import (
	"errors"
	"testing"
	"time"
)

func TestFiscalYearOf(t *testing.T) {
	cases := []struct{ year, month, want int }{
		{2024, 4, 2024},
		{2024, 12, 2024},
		{2025, 1, 2024},
		{2025, 3, 2024},
		{2025, 4, 2025},
	}
	for _, c := range cases {
		if got := FiscalYearOf(c.year, c.month); got != c.want {
			t.Fatalf("FiscalYearOf(%d, %d) = %d, want %d", c.year, c.month, got, c.want)
		}
	}
}

func TestParseMonthColumn(t *testing.T) {
	cases := []struct {
		in         string
		fiscalYear int
		month      int
		ok         bool
	}{
		{"2024年4月分", 2024, 4, true},
		{"2025年1月分", 2024, 1, true}, // January belongs to the prior fiscal year
		{"4月", 0, 4, true},
		{"12月分", 0, 12, true},
		{"45383", 0, 4, true}, // serial for 2024-04-01
		{"12000", 0, 0, false},
		{"合計", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, c := range cases {
		fy, month, ok := ParseMonthColumn(c.in)
		if ok != c.ok || fy != c.fiscalYear || month != c.month {
			t.Fatalf("ParseMonthColumn(%q) = (%d, %d, %v), want (%d, %d, %v)",
				c.in, fy, month, ok, c.fiscalYear, c.month, c.ok)
		}
	}
}

func TestFiscalYearFromSheetName(t *testing.T) {
	cases := []struct {
		in   string
		year int
		ok   bool
	}{
		{"学校別（2024年度）", 2024, true},
		{"ByEntity (2024 FY)", 2024, true},
		{"イベント別(2023)", 2023, true},
		{"会員率", 0, false},
	}
	for _, c := range cases {
		y, ok := FiscalYearFromSheetName(c.in)
		if ok != c.ok || y != c.year {
			t.Fatalf("FiscalYearFromSheetName(%q) = (%d, %v), want (%d, %v)", c.in, y, ok, c.year, c.ok)
		}
	}
}

func TestReportDateFromFileName(t *testing.T) {
	got, err := ReportDateFromFileName("売上報告書20250415.xlsx")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	if _, err := ReportDateFromFileName("report.xlsx"); !errors.Is(err, ErrNoReportDate) {
		t.Fatalf("expected ErrNoReportDate, got %v", err)
	}
}

func TestSnapshotDateFromSheetName(t *testing.T) {
	reportDate := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)

	got := SnapshotDateFromSheetName("会員率（12月27日現在）", reportDate)
	if want := time.Date(2025, 12, 27, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	// A January-March snapshot on an April-December report sits in the
	// following calendar year of the same fiscal year.
	got = SnapshotDateFromSheetName("会員率（2月1日現在）", reportDate)
	if want := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	// No date in the name falls back to the report date.
	got = SnapshotDateFromSheetName("会員率", reportDate)
	if !got.Equal(reportDate) {
		t.Fatalf("got %v, want report date", got)
	}
}
