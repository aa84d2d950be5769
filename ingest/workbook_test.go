package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestClassifySheet(t *testing.T) {
	cases := []struct {
		name string
		want SheetType
	}{
		{"売上報告", SheetSummary},
		{"Summary", SheetSummary},
		{"学校別（2024年度）", SheetSchoolSales},
		{"ByEntity (2024 FY)", SheetSchoolSales},
		{"イベント別（2024年度）", SheetEventSales},
		{"ByEvent (2024 FY)", SheetEventSales},
		{"会員率（12月27日現在）", SheetMemberRate},
		{"Membership (4月15日現在)", SheetMemberRate},
		{"学校別売上比較", SheetUnknown}, // derived comparison view
		{"メモ", SheetUnknown},
	}
	for _, c := range cases {
		if got := ClassifySheet(c.name); got != c.want {
			t.Fatalf("ClassifySheet(%q) = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestLocateHeader(t *testing.T) {
	grid := [][]string{
		{"売上報告書"},
		{},
		{"", "担当", "写真館", "学校名", "4月"},
		{"", "山田", "A写真館", "さくら小学校", "1000"},
	}
	idx, err := LocateHeader(grid, schoolSalesHeaderKeywords)
	if err != nil {
		t.Fatal(err)
	}
	if idx != 2 {
		t.Fatalf("expected header at row 2, got %d", idx)
	}

	if _, err := LocateHeader([][]string{{"メモ"}, {"x", "y"}}, schoolSalesHeaderKeywords); !errors.Is(err, ErrHeaderNotFound) {
		t.Fatalf("expected ErrHeaderNotFound, got %v", err)
	}
}

func TestOpenWorkbook_NotAWorkbook(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad20250415.xlsx")
	if err := os.WriteFile(p, []byte("not a workbook"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := OpenWorkbook(p)
	var dfe *DocumentFormatError
	if !errors.As(err, &dfe) {
		t.Fatalf("expected DocumentFormatError, got %v", err)
	}
}
