package ingest

import (
	"strconv"
	"strings"

	"gorm.io/gorm/clause"
)

// importMemberRates ingests a per-school, per-grade membership snapshot
// sheet. Rows carry the source system's own school id, so unknown schools
// are registered here even under strict matching.
func (s *importSession) importMemberRates(sheetName string) error {
	grid, err := s.wb.Rows(sheetName)
	if err != nil {
		return err
	}

	headerIdx, err := LocateHeader(grid, memberRateHeaderKeywords)
	if err != nil {
		return err
	}
	header := grid[headerIdx]

	extCol, schoolCol, attrCol, studioCol := -1, -1, -1, -1
	gradeCol, studentsCol, membersCol := -1, -1, -1
	for idx, cell := range header {
		c := strings.ToLower(cell)
		switch {
		case strings.Contains(c, "学校id") || strings.Contains(c, "school id"):
			extCol = idx
		case strings.Contains(c, "学校名") || strings.Contains(c, "school"):
			schoolCol = idx
		case strings.Contains(c, "属性") || strings.Contains(c, "attribute"):
			attrCol = idx
		case strings.Contains(c, "写真館") || strings.Contains(c, "studio"):
			studioCol = idx
		case strings.Contains(c, "学年") || strings.Contains(c, "お子様") || strings.Contains(c, "grade"):
			gradeCol = idx
		case strings.Contains(c, "生徒数") || strings.Contains(c, "student"):
			studentsCol = idx
		case strings.Contains(c, "会員") && strings.Contains(c, "登録"),
			strings.Contains(c, "member"):
			membersCol = idx
		}
	}
	if schoolCol < 0 {
		return ErrHeaderNotFound
	}

	snapshotDate := SnapshotDateFromSheetName(sheetName, s.report.ReportDate)

	count := 0
	for i := headerIdx + 1; i < len(grid); i++ {
		row := grid[i]
		schoolName := cellAt(row, schoolCol)
		if schoolName == "" {
			continue
		}

		var externalID *int
		if extCol >= 0 {
			if n, err := strconv.Atoi(cellAt(row, extCol)); err == nil {
				externalID = &n
			}
		}
		attrs := SchoolAttributes{}
		if attrCol >= 0 {
			attrs.Attribute = cellAt(row, attrCol)
		}
		if studioCol >= 0 {
			attrs.Studio = cellAt(row, studioCol)
		}

		schoolID, ok, err := s.resolveSchool(schoolName, externalID, attrs)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		grade := ""
		if gradeCol >= 0 {
			grade = cellAt(row, gradeCol)
		}
		if grade == "" {
			continue
		}

		students, members := 0, 0
		if studentsCol >= 0 {
			if f, ok := parseFloatCell(cellAt(row, studentsCol)); ok {
				students = int(f)
			}
		}
		if membersCol >= 0 {
			if f, ok := parseFloatCell(cellAt(row, membersCol)); ok {
				members = int(f)
			}
		}
		rate := 0.0
		if students > 0 {
			rate = float64(members) / float64(students)
		}

		rec := MemberRate{
			ReportID:     s.report.ID,
			SchoolID:     schoolID,
			Grade:        grade,
			StudentCount: students,
			MemberCount:  members,
			MemberRate:   rate,
			SnapshotDate: snapshotDate,
		}
		if err := s.tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "report_id"}, {Name: "school_id"}, {Name: "grade"},
			},
			UpdateAll: true,
		}).Create(&rec).Error; err != nil {
			return err
		}
		count++
	}

	s.result.Stats["member_rates"] += count
	s.log.WithField("sheet", sheetName).WithField("rows", count).Info("member rates imported")
	return nil
}
