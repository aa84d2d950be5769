package ingest

import (
	"regexp"
	"strconv"
	"strings"

	"gorm.io/gorm/clause"
)

var fiscalHeadingRe = regexp.MustCompile(`^(\d{4})年度`)

// importSummary ingests the company-wide summary sheet: the monthly totals
// block, the per-branch block, and the per-manager block. Each block is
// optional; a sheet with none of them contributes nothing.
func (s *importSession) importSummary(sheetName string) error {
	grid, err := s.wb.Rows(sheetName)
	if err != nil {
		return err
	}

	if err := s.importMonthlyTotals(sheetName, grid); err != nil {
		return err
	}
	if err := s.importBranchTotals(sheetName, grid); err != nil {
		return err
	}
	return s.importManagerTotals(sheetName, grid)
}

// importMonthlyTotals reads the 総売上額 block. The row above the label is the
// month header row; the rows below it carry the component measures, looked up
// by label in the same column as 総売上額 itself.
func (s *importSession) importMonthlyTotals(sheetName string, grid [][]string) error {
	currentFY := s.defaultFY
	count := 0

	for i, row := range grid {
		for j, cell := range row {
			c := strings.TrimSpace(cell)
			if m := fiscalHeadingRe.FindStringSubmatch(c); m != nil {
				currentFY, _ = strconv.Atoi(m[1])
			}
			if !strings.Contains(c, "総売上額") && !cellContainsFold(c, "total sales") {
				continue
			}
			if i == 0 {
				continue
			}
			labelCol := j
			monthCols := monthColumnsOf(grid[i-1], currentFY)
			for _, mc := range monthCols {
				total, ok := parseMeasure(cellAt(row, mc.col))
				if !ok {
					continue
				}
				rec := MonthlyTotal{
					ReportID:   s.report.ID,
					FiscalYear: mc.fiscalYear,
					Month:      mc.month,
					TotalSales: total,
				}
				// Component measures sit in the rows directly below.
				for k := i + 1; k < len(grid) && k <= i+10; k++ {
					label := cellAt(grid[k], labelCol)
					if label == "" {
						continue
					}
					v, ok := parseFloatCell(cellAt(grid[k], mc.col))
					if !ok {
						continue
					}
					switch {
					case strings.Contains(label, "直取引") || cellContainsFold(label, "direct"):
						rec.DirectSales = v
					case strings.Contains(label, "写真館") && strings.Contains(label, "学校"),
						cellContainsFold(label, "studio"):
						rec.StudioSales = v
					case strings.Contains(label, "イベント実施学校数") || cellContainsFold(label, "school count"):
						rec.SchoolCount = int(v)
					case label == "予算" || cellContainsFold(label, "budget"):
						rec.Budget = v
					}
				}
				if err := s.tx.Clauses(clause.OnConflict{
					Columns: []clause.Column{
						{Name: "report_id"}, {Name: "fiscal_year"}, {Name: "month"},
					},
					UpdateAll: true,
				}).Create(&rec).Error; err != nil {
					return err
				}
				count++
			}
		}
	}

	if count > 0 {
		s.result.Stats["monthly_totals"] += count
		s.log.WithField("sheet", sheetName).WithField("rows", count).Info("monthly totals imported")
	}
	return nil
}

// importBranchTotals reads the 各事業所売上 block: a heading, a fiscal-year
// row, a month header row, then one row per branch until the first blank.
func (s *importSession) importBranchTotals(sheetName string, grid [][]string) error {
	start, labelCol := findLabelCell(grid, "各事業所", "売上")
	if start < 0 {
		start, labelCol = findLabelCell(grid, "Branch", "Sales")
	}
	if start < 0 || start+3 >= len(grid) {
		return nil
	}

	fy := s.defaultFY
	if _, row := firstNonEmptyCell(grid[start+1]); row != "" {
		if m := sheetFiscalRe.FindStringSubmatch(row); m != nil {
			fy, _ = strconv.Atoi(m[1])
		}
	}
	monthCols := monthColumnsOf(grid[start+2], fy)
	if len(monthCols) == 0 {
		return nil
	}

	count := 0
	for i := start + 3; i < len(grid); i++ {
		branch := cellAt(grid[i], labelCol)
		if branch == "" {
			break
		}
		if isDerivedRowLabel(branch) {
			continue
		}
		for _, mc := range monthCols {
			sales, ok := parseMeasure(cellAt(grid[i], mc.col))
			if !ok {
				continue
			}
			rec := BranchPeriodSales{
				ReportID:   s.report.ID,
				FiscalYear: mc.fiscalYear,
				Month:      mc.month,
				Branch:     branch,
				Sales:      sales,
			}
			if err := s.tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{
					{Name: "report_id"}, {Name: "fiscal_year"},
					{Name: "month"}, {Name: "branch"},
				},
				UpdateAll: true,
			}).Create(&rec).Error; err != nil {
				return err
			}
			count++
		}
	}

	if count > 0 {
		s.result.Stats["branch_period_sales"] += count
		s.log.WithField("sheet", sheetName).WithField("rows", count).Info("branch totals imported")
	}
	return nil
}

// importManagerTotals reads the 担当者別売上 block, which repeats once per
// fiscal year: a "YYYY年度 担当者別..." heading, a month header row, then one
// row per manager until the next heading or a ■ section marker.
func (s *importSession) importManagerTotals(sheetName string, grid [][]string) error {
	blockStart, _ := findLabelCell(grid, "担当者別", "売上")
	if blockStart < 0 {
		blockStart, _ = findLabelCell(grid, "Manager", "Sales")
	}
	if blockStart < 0 {
		return nil
	}

	count := 0
	for i := blockStart; i < len(grid); i++ {
		labelCol, head := firstNonEmptyCell(grid[i])
		if labelCol < 0 {
			continue
		}
		m := sheetFiscalRe.FindStringSubmatch(head)
		if m == nil && i != blockStart {
			continue
		}
		fy := s.defaultFY
		if m != nil {
			fy, _ = strconv.Atoi(m[1])
		}

		// The month header row follows within a couple of rows.
		headerRow := -1
		for j := i + 1; j < len(grid) && j <= i+3; j++ {
			if len(monthColumnsOf(grid[j], fy)) > 0 {
				headerRow = j
				break
			}
		}
		if headerRow < 0 {
			continue
		}
		monthCols := monthColumnsOf(grid[headerRow], fy)

		j := headerRow + 1
		for ; j < len(grid); j++ {
			name := cellAt(grid[j], labelCol)
			if name == "" {
				break
			}
			if strings.Contains(name, "年度") || strings.Contains(name, "■") {
				break
			}
			if isDerivedRowLabel(name) {
				continue
			}
			manager := s.aliasManager(NormalizeBrackets(name))
			for _, mc := range monthCols {
				sales, ok := parseMeasure(cellAt(grid[j], mc.col))
				if !ok {
					continue
				}
				rec := ManagerPeriodSales{
					ReportID:   s.report.ID,
					FiscalYear: mc.fiscalYear,
					Month:      mc.month,
					Manager:    manager,
					Sales:      sales,
				}
				if err := s.tx.Clauses(clause.OnConflict{
					Columns: []clause.Column{
						{Name: "report_id"}, {Name: "fiscal_year"},
						{Name: "month"}, {Name: "manager"},
					},
					UpdateAll: true,
				}).Create(&rec).Error; err != nil {
					return err
				}
				count++
			}
		}
		i = j - 1
	}

	if count > 0 {
		s.result.Stats["manager_period_sales"] += count
		s.log.WithField("sheet", sheetName).WithField("rows", count).Info("manager totals imported")
	}
	return nil
}

// isDerivedRowLabel reports whether a block row is a computed line (budget,
// ratios, totals) rather than a real branch or manager.
func isDerivedRowLabel(label string) bool {
	for _, d := range []string{"予算", "昨年差", "昨年比", "合計", "total", "budget"} {
		if cellContainsFold(label, d) {
			return true
		}
	}
	return false
}
