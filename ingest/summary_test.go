package ingest

import (
	"testing"
)

func summarySheet() sheetDef {
	return sheetDef{
		name: "売上報告",
		rows: [][]string{
			{"2024年度"},
			{"", "2024年4月分", "2024年5月分"},
			{"総売上額", "100000", "90000"},
			{"直取引", "40000", "30000"},
			{"写真館・学校", "60000", "60000"},
			{"イベント実施学校数", "12", "11"},
			{"予算", "95000", "95000"},
			{},
			{"各事業所売上"},
			{"2024年度"},
			{"", "2024年4月分", "2024年5月分"},
			{"東京", "50000", "45000"},
			{"大阪", "50000", "45000"},
			{"合計", "100000", "90000"},
			{},
			{"2024年度 担当者別売上"},
			{"", "2024年4月分", "2024年5月分"},
			{"Jane", "70000", "60000"},
			{"Ken", "30000", "30000"},
		},
	}
}

func TestImporter_SummarySheet(t *testing.T) {
	db := newTestDB(t)
	dir := t.TempDir()
	path := buildWorkbookFile(t, dir, "売上報告書20250415.xlsx", []sheetDef{summarySheet()})

	im := newTestImporter(t, db, ImporterConfig{})
	result, err := im.ImportFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Success {
		t.Fatalf("expected success")
	}

	var totals []MonthlyTotal
	if err := db.Order("month asc").Find(&totals).Error; err != nil {
		t.Fatal(err)
	}
	if len(totals) != 2 {
		t.Fatalf("expected 2 monthly totals, got %d", len(totals))
	}
	apr := totals[0]
	if apr.FiscalYear != 2024 || apr.Month != 4 {
		t.Fatalf("unexpected period: %+v", apr)
	}
	if apr.TotalSales != 100000 || apr.DirectSales != 40000 || apr.StudioSales != 60000 {
		t.Fatalf("unexpected totals: %+v", apr)
	}
	if apr.SchoolCount != 12 || apr.Budget != 95000 {
		t.Fatalf("unexpected count/budget: %+v", apr)
	}

	var branches []BranchPeriodSales
	if err := db.Order("branch asc, month asc").Find(&branches).Error; err != nil {
		t.Fatal(err)
	}
	// Two branches, two months each; the 合計 line is derived and skipped.
	if len(branches) != 4 {
		t.Fatalf("expected 4 branch rows, got %d", len(branches))
	}
	for _, b := range branches {
		if b.Branch != "東京" && b.Branch != "大阪" {
			t.Fatalf("unexpected branch %q", b.Branch)
		}
		if b.FiscalYear != 2024 {
			t.Fatalf("unexpected fiscal year: %+v", b)
		}
	}

	var managers []ManagerPeriodSales
	if err := db.Order("manager asc, month asc").Find(&managers).Error; err != nil {
		t.Fatal(err)
	}
	if len(managers) != 4 {
		t.Fatalf("expected 4 manager rows, got %d", len(managers))
	}
	byKey := map[string]float64{}
	for _, m := range managers {
		if m.FiscalYear != 2024 {
			t.Fatalf("unexpected fiscal year: %+v", m)
		}
		byKey[m.Manager] += m.Sales
	}
	if byKey["Jane"] != 130000 || byKey["Ken"] != 60000 {
		t.Fatalf("unexpected manager totals: %v", byKey)
	}
}

func TestImporter_SummarySheetReimportSupersedes(t *testing.T) {
	db := newTestDB(t)
	dir := t.TempDir()
	path := buildWorkbookFile(t, dir, "売上報告書20250415.xlsx", []sheetDef{summarySheet()})

	im := newTestImporter(t, db, ImporterConfig{})
	if _, err := im.ImportFile(path); err != nil {
		t.Fatal(err)
	}
	if _, err := im.ImportFile(path); err != nil {
		t.Fatal(err)
	}

	var totals, branches, managers int64
	if err := db.Model(&MonthlyTotal{}).Count(&totals).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Model(&BranchPeriodSales{}).Count(&branches).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Model(&ManagerPeriodSales{}).Count(&managers).Error; err != nil {
		t.Fatal(err)
	}
	if totals != 2 || branches != 4 || managers != 4 {
		t.Fatalf("expected identical counts after re-import, got %d/%d/%d", totals, branches, managers)
	}
}
