package ingest

import (
	"gorm.io/gorm/clause"
)

// importSchoolSales ingests one per-school monthly sales sheet. fiscalYear
// is the default for month columns that name no year (taken from the sheet
// name or the report date).
func (s *importSession) importSchoolSales(sheetName string, fiscalYear int) error {
	grid, err := s.wb.Rows(sheetName)
	if err != nil {
		return err
	}

	headerIdx, err := LocateHeader(grid, schoolSalesHeaderKeywords)
	if err != nil {
		return err
	}
	header := grid[headerIdx]

	// Column positions fall back to the layout the reports have always used
	// when a label is missing: manager, studio, school name.
	managerCol, studioCol, schoolCol := 1, 2, 3
	for idx, cell := range header {
		switch {
		case cellContainsFold(cell, "担当", "manager", "person in charge"):
			managerCol = idx
		case cellContainsFold(cell, "写真館", "studio"):
			studioCol = idx
		case cellContainsFold(cell, "学校名", "school"):
			schoolCol = idx
		}
	}
	monthCols := monthColumnsOf(header, fiscalYear)

	count := 0
	for i := headerIdx + 1; i < len(grid); i++ {
		row := grid[i]
		schoolName := cellAt(row, schoolCol)
		if schoolName == "" {
			continue
		}
		manager := s.aliasManager(NormalizeBrackets(cellAt(row, managerCol)))
		studio := cellAt(row, studioCol)

		schoolID, ok, err := s.resolveSchool(schoolName, nil, SchoolAttributes{Manager: manager, Studio: studio})
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		for _, mc := range monthCols {
			sales, ok := parseMeasure(cellAt(row, mc.col))
			if !ok {
				continue
			}
			rec := SchoolPeriodSales{
				ReportID:   s.report.ID,
				SchoolID:   schoolID,
				FiscalYear: mc.fiscalYear,
				Month:      mc.month,
				Manager:    manager,
				Studio:     studio,
				Sales:      sales,
			}
			if err := s.tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{
					{Name: "report_id"}, {Name: "school_id"},
					{Name: "fiscal_year"}, {Name: "month"},
				},
				UpdateAll: true,
			}).Create(&rec).Error; err != nil {
				return err
			}
			count++
		}
	}

	s.result.Stats["school_period_sales"] += count
	s.log.WithField("sheet", sheetName).WithField("rows", count).Info("school sales imported")
	return nil
}
