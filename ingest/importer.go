package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// EntityMode controls what happens when a row's school name resolves to
// nothing.
type EntityMode string

const (
	// EntityModeCreate registers unknown schools on first sighting.
	EntityModeCreate EntityMode = "create"
	// EntityModeStrict collects unmatched names and rolls the import back.
	EntityModeStrict EntityMode = "strict"
	// EntityModeLenient drops unmatched rows and counts them.
	EntityModeLenient EntityMode = "lenient"
)

// DuplicatePolicy controls handling of a report date that already exists.
type DuplicatePolicy string

const (
	DuplicateSupersede DuplicatePolicy = "supersede"
	DuplicateReject    DuplicatePolicy = "reject"
)

type ImporterConfig struct {
	EntityMode   EntityMode
	OnDuplicate  DuplicatePolicy
	NameMappings map[string]string
	Scorer       NameScorer
	Logger       *logrus.Logger
}

// ImportResult is the caller-facing outcome of one import call.
type ImportResult struct {
	Success          bool
	RunID            string
	ReportID         uint
	ReportDate       time.Time
	FileName         string
	Stats            map[string]int
	Warnings         []string
	UnmatchedSchools []string
	DroppedRows      int
}

type importPhase string

const (
	phaseOpened              importPhase = "opened"
	phaseSummaryImported     importPhase = "summary_imported"
	phaseEntitySalesImported importPhase = "entity_sales_imported"
	phaseEventSalesImported  importPhase = "event_sales_imported"
	phaseMembershipImported  importPhase = "membership_imported"
	phaseCommitted           importPhase = "committed"
	phaseAborted             importPhase = "aborted"
)

// Importer drives full report imports against one store. One import runs in
// one exclusive write transaction; nothing is visible to readers until
// commit. Not safe for two concurrent imports against the same store.
type Importer struct {
	db  *gorm.DB
	cfg ImporterConfig
	log *logrus.Logger
}

func NewImporter(db *gorm.DB, cfg ImporterConfig) *Importer {
	if cfg.EntityMode == "" {
		cfg.EntityMode = EntityModeCreate
	}
	if cfg.OnDuplicate == "" {
		cfg.OnDuplicate = DuplicateSupersede
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Importer{db: db, cfg: cfg, log: log}
}

// ImportFile imports one report workbook. The returned result is populated
// on both success and failure; on failure the typed error says whether the
// work was rolled back (it always is) and, for strict-mode mismatches,
// which names were unmatched.
func (im *Importer) ImportFile(path string) (*ImportResult, error) {
	result := &ImportResult{
		RunID:    uuid.NewString(),
		FileName: filepath.Base(path),
		Stats:    map[string]int{},
	}
	log := im.log.WithFields(logrus.Fields{"run_id": result.RunID, "file": result.FileName})

	reportDate, err := ReportDateFromFileName(result.FileName)
	if err != nil {
		log.WithField("phase", phaseAborted).Warn("no identifying date in filename")
		return result, err
	}
	result.ReportDate = reportDate
	log = log.WithField("report_date", reportDate.Format("2006-01-02"))

	wb, err := OpenWorkbook(path)
	if err != nil {
		log.WithField("phase", phaseAborted).WithError(err).Warn("cannot open workbook")
		return result, err
	}
	defer wb.Close()
	log.WithField("phase", phaseOpened).Info("import started")

	err = im.db.Transaction(func(tx *gorm.DB) error {
		return im.runImport(tx, wb, reportDate, result, log)
	})
	if err != nil {
		var unmatched *UnmatchedSchoolError
		if errors.As(err, &unmatched) {
			result.UnmatchedSchools = unmatched.Names
		}
		result.ReportID = 0
		log.WithField("phase", phaseAborted).WithError(err).Warn("import rolled back")
		return result, err
	}

	result.Success = true
	log.WithFields(logrus.Fields{"phase": phaseCommitted, "report_id": result.ReportID}).Info("import committed")
	return result, nil
}

func (im *Importer) runImport(tx *gorm.DB, wb *Workbook, reportDate time.Time, result *ImportResult, log *logrus.Entry) error {
	var prior Report
	err := tx.Where("report_date = ?", reportDate).First(&prior).Error
	switch {
	case err == nil:
		if im.cfg.OnDuplicate == DuplicateReject {
			return &DuplicateReportError{ReportID: prior.ID, ReportDate: reportDate}
		}
		if err := supersedeReport(tx, prior.ID); err != nil {
			return err
		}
		log.WithField("superseded_report_id", prior.ID).Info("superseding prior report")
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	report := Report{
		FileName:   result.FileName,
		ReportDate: reportDate,
		ImportedAt: time.Now().UTC(),
	}
	if err := tx.Create(&report).Error; err != nil {
		return err
	}
	result.ReportID = report.ID

	aliases, err := loadManagerAliases(tx)
	if err != nil {
		return err
	}

	s := &importSession{
		tx:        tx,
		wb:        wb,
		report:    &report,
		resolver:  NewResolver(tx, im.cfg.Scorer, im.cfg.NameMappings, im.cfg.EntityMode == EntityModeCreate),
		registrar: NewResolver(tx, im.cfg.Scorer, im.cfg.NameMappings, true),
		aliases:   aliases,
		mode:      im.cfg.EntityMode,
		defaultFY: FiscalYearOf(reportDate.Year(), int(reportDate.Month())),
		result:    result,
		log:       log,
		unmatched: map[string]struct{}{},
	}

	sheets := wb.SheetNames()
	seen := map[SheetType]bool{}

	step := func(phase importPhase, want SheetType, run func(sheet string) error) error {
		for _, name := range sheets {
			if ClassifySheet(name) != want {
				continue
			}
			seen[want] = true
			if err := run(name); err != nil {
				if errors.Is(err, ErrHeaderNotFound) {
					s.warn(name, err)
					continue
				}
				return err
			}
		}
		if !seen[want] {
			s.warn(string(want), fmt.Errorf("no sheet of this type in workbook"))
		}
		log.WithField("phase", phase).Debug("sheet group done")
		return nil
	}

	if err := step(phaseSummaryImported, SheetSummary, s.importSummary); err != nil {
		return err
	}
	if err := step(phaseEntitySalesImported, SheetSchoolSales, func(sheet string) error {
		fy, ok := FiscalYearFromSheetName(sheet)
		if !ok {
			fy = s.defaultFY
		}
		return s.importSchoolSales(sheet, fy)
	}); err != nil {
		return err
	}
	if err := step(phaseEventSalesImported, SheetEventSales, func(sheet string) error {
		fy, ok := FiscalYearFromSheetName(sheet)
		if !ok {
			fy = s.defaultFY
		}
		return s.importEventSales(sheet, fy)
	}); err != nil {
		return err
	}
	if err := step(phaseMembershipImported, SheetMemberRate, s.importMemberRates); err != nil {
		return err
	}

	if s.mode == EntityModeStrict && len(s.unmatched) > 0 {
		names := make([]string, 0, len(s.unmatched))
		for n := range s.unmatched {
			names = append(names, n)
		}
		sort.Strings(names)
		return &UnmatchedSchoolError{Names: names}
	}
	return nil
}

// importSession is the per-import pipeline state shared by the sheet
// importers. Everything it touches goes through the import transaction.
type importSession struct {
	tx        *gorm.DB
	wb        *Workbook
	report    *Report
	resolver  *Resolver // honors the configured entity mode
	registrar *Resolver // always creating; used for rows carrying external ids
	aliases   map[string]string
	mode      EntityMode
	defaultFY int
	result    *ImportResult
	log       *logrus.Entry
	unmatched map[string]struct{}
}

func (s *importSession) warn(sheet string, err error) {
	s.result.Warnings = append(s.result.Warnings, fmt.Sprintf("%s: %v", sheet, err))
	s.log.WithField("sheet", sheet).Warn(err.Error())
}

func (s *importSession) aliasManager(name string) string {
	if name == "" {
		return ""
	}
	if canonical, ok := s.aliases[name]; ok {
		return canonical
	}
	return name
}

// resolveSchool resolves a row's school name under the session's entity
// mode. ok=false means the row is dropped (lenient) or the name was recorded
// for the strict-mode abort; processing continues either way so one pass
// collects every unmatched name.
func (s *importSession) resolveSchool(rawName string, externalID *int, attrs SchoolAttributes) (uint, bool, error) {
	r := s.resolver
	if externalID != nil {
		r = s.registrar
	}
	id, err := r.Resolve(rawName, externalID, attrs)
	if errors.Is(err, ErrSchoolNotFound) {
		if s.mode == EntityModeStrict {
			s.unmatched[strings.TrimSpace(rawName)] = struct{}{}
		} else {
			s.result.DroppedRows++
		}
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func supersedeReport(tx *gorm.DB, reportID uint) error {
	for _, model := range []any{
		&SchoolPeriodSales{},
		&EventPeriodSales{},
		&MemberRate{},
		&MonthlyTotal{},
		&BranchPeriodSales{},
		&ManagerPeriodSales{},
	} {
		if err := tx.Where("report_id = ?", reportID).Delete(model).Error; err != nil {
			return err
		}
	}
	return tx.Delete(&Report{}, reportID).Error
}

func loadManagerAliases(tx *gorm.DB) (map[string]string, error) {
	var rows []ManagerAlias
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Alias] = r.CanonicalName
	}
	return out, nil
}

// monthColumn is one recognized month column of a sheet's header row.
type monthColumn struct {
	col        int
	fiscalYear int
	month      int
}

func monthColumnsOf(header []string, defaultFY int) []monthColumn {
	var out []monthColumn
	for col, cell := range header {
		fy, month, ok := ParseMonthColumn(cell)
		if !ok {
			continue
		}
		if fy == 0 {
			fy = defaultFY
		}
		out = append(out, monthColumn{col: col, fiscalYear: fy, month: month})
	}
	return out
}

func parseFloatCell(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// parseMeasure drops blank and zero cells: in these reports a zero sale is
// indistinguishable from "no data" and is never persisted.
func parseMeasure(s string) (float64, bool) {
	f, ok := parseFloatCell(s)
	if !ok || f == 0 {
		return 0, false
	}
	return f, true
}

func cellContainsFold(cell string, subs ...string) bool {
	c := strings.ToLower(cell)
	for _, sub := range subs {
		if strings.Contains(c, sub) {
			return true
		}
	}
	return false
}

// findLabelCell returns the first (row, col) whose cell contains all of subs.
func findLabelCell(grid [][]string, subs ...string) (int, int) {
	for i, row := range grid {
		for j, cell := range row {
			ok := true
			for _, sub := range subs {
				if !strings.Contains(cell, sub) {
					ok = false
					break
				}
			}
			if ok && strings.TrimSpace(cell) != "" {
				return i, j
			}
		}
	}
	return -1, -1
}

func firstNonEmptyCell(row []string) (int, string) {
	for i, cell := range row {
		if c := strings.TrimSpace(cell); c != "" {
			return i, c
		}
	}
	return -1, ""
}
