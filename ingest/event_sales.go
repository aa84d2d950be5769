package ingest

import (
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// importEventSales ingests one per-event monthly sales sheet, registering
// events on first sighting per (school, event name).
func (s *importSession) importEventSales(sheetName string, fiscalYear int) error {
	grid, err := s.wb.Rows(sheetName)
	if err != nil {
		return err
	}

	headerIdx, err := LocateHeader(grid, eventSalesHeaderKeywords)
	if err != nil {
		return err
	}
	header := grid[headerIdx]

	branchCol, schoolCol, eventCol, startDateCol := 1, 2, 3, -1
	for idx, cell := range header {
		switch {
		case cellContainsFold(cell, "事業所", "branch"):
			branchCol = idx
		case cellContainsFold(cell, "学校名", "school"):
			schoolCol = idx
		case cellContainsFold(cell, "開始日", "start date", "イベント日"):
			startDateCol = idx
		case cellContainsFold(cell, "イベント名", "event"):
			eventCol = idx
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
		eventName := cellAt(row, eventCol)
		if eventName == "" {
			continue
		}
		branch := cellAt(row, branchCol)

		var startDate *time.Time
		if startDateCol >= 0 {
			startDate = parseDateCell(cellAt(row, startDateCol))
		}

		schoolID, ok, err := s.resolveSchool(schoolName, nil, SchoolAttributes{Branch: branch})
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		eventID, err := getOrCreateEvent(s.tx, schoolID, eventName, startDate, fiscalYear)
		if err != nil {
			return err
		}

		for _, mc := range monthCols {
			sales, ok := parseMeasure(cellAt(row, mc.col))
			if !ok {
				continue
			}
			rec := EventPeriodSales{
				ReportID:   s.report.ID,
				EventID:    eventID,
				FiscalYear: mc.fiscalYear,
				Month:      mc.month,
				Sales:      sales,
			}
			if err := s.tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{
					{Name: "report_id"}, {Name: "event_id"},
					{Name: "fiscal_year"}, {Name: "month"},
				},
				UpdateAll: true,
			}).Create(&rec).Error; err != nil {
				return err
			}
			count++
		}
	}

	s.result.Stats["event_period_sales"] += count
	s.log.WithField("sheet", sheetName).WithField("rows", count).Info("event sales imported")
	return nil
}

// getOrCreateEvent registers an event on first sighting. The start date may
// be refined by later sightings; the fiscal year keeps its first observed
// value.
func getOrCreateEvent(tx *gorm.DB, schoolID uint, name string, startDate *time.Time, fiscalYear int) (uint, error) {
	var ev Event
	err := tx.Where("school_id = ? AND name = ?", schoolID, name).First(&ev).Error
	if err == nil {
		if startDate != nil {
			if err := tx.Model(&ev).Update("start_date", startDate).Error; err != nil {
				return 0, err
			}
		}
		return ev.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	ev = Event{
		SchoolID:   schoolID,
		Name:       name,
		StartDate:  startDate,
		FiscalYear: fiscalYear,
	}
	if err := tx.Create(&ev).Error; err != nil {
		return 0, err
	}
	return ev.ID, nil
}

// parseDateCell reads a date cell that may be a raw serial or a textual
// date. Returns nil when the cell holds neither.
func parseDateCell(s string) *time.Time {
	if s == "" {
		return nil
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if t, ok := serialToDate(serial); ok {
			return &t
		}
		return nil
	}
	for _, layout := range []string{"2006-01-02", "2006/01/02", "2006/1/2"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
