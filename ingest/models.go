package ingest

import "time"

// Report is one imported workbook instance. At most one report exists per
// ReportDate; re-importing the same date supersedes the prior report and
// every fact row that references it.
type Report struct {
	ID         uint      `gorm:"primaryKey"`
	FileName   string    `gorm:"size:512"`
	ReportDate time.Time `gorm:"uniqueIndex"`
	ImportedAt time.Time `gorm:"index"`
}

// School is the canonical business entity a spreadsheet row refers to.
// Name keeps the year-marker-stripped display form; BaseName is the fully
// normalized form used for matching. LogicalID groups rows that represent
// the same real-world school across renames.
type School struct {
	ID        uint   `gorm:"primaryKey"`
	LogicalID uint   `gorm:"index"`
	Name      string `gorm:"uniqueIndex;size:256"`
	BaseName  string `gorm:"index;size:256"`
	Attribute string `gorm:"size:64"`  // kindergarten, elementary, ...
	Studio    string `gorm:"size:128"` // partner photo studio
	Branch    string `gorm:"size:64"`  // owning branch office
	Manager   string `gorm:"size:64"`
	UpdatedAt time.Time
}

// SchoolExternalID links the source spreadsheet's own school numbering to a
// canonical School. External ids are assumed to be re-issued over time, with
// larger ids issued later.
type SchoolExternalID struct {
	ExternalID   int    `gorm:"primaryKey;autoIncrement:false"`
	SchoolID     uint   `gorm:"index"`
	OriginalName string `gorm:"size:256"`
}

// Event is a named activity at one school, registered on first sighting.
type Event struct {
	ID         uint   `gorm:"primaryKey"`
	SchoolID   uint   `gorm:"uniqueIndex:uniq_event_school_name"`
	Name       string `gorm:"uniqueIndex:uniq_event_school_name;size:256"`
	StartDate  *time.Time
	FiscalYear int `gorm:"index"`
}

// SchoolPeriodSales is one school's sales for one fiscal-year month as
// reported by one report.
type SchoolPeriodSales struct {
	ID         uint `gorm:"primaryKey"`
	ReportID   uint `gorm:"uniqueIndex:uniq_school_period;index"`
	SchoolID   uint `gorm:"uniqueIndex:uniq_school_period;index"`
	FiscalYear int  `gorm:"uniqueIndex:uniq_school_period"`
	Month      int  `gorm:"uniqueIndex:uniq_school_period"`
	Manager    string `gorm:"size:64"`
	Studio     string `gorm:"size:128"`
	Sales      float64
}

type EventPeriodSales struct {
	ID         uint `gorm:"primaryKey"`
	ReportID   uint `gorm:"uniqueIndex:uniq_event_period;index"`
	EventID    uint `gorm:"uniqueIndex:uniq_event_period;index"`
	FiscalYear int  `gorm:"uniqueIndex:uniq_event_period"`
	Month      int  `gorm:"uniqueIndex:uniq_event_period"`
	Sales      float64
}

// MemberRate is a per-school, per-grade membership snapshot.
type MemberRate struct {
	ID           uint   `gorm:"primaryKey"`
	ReportID     uint   `gorm:"uniqueIndex:uniq_member_rate;index"`
	SchoolID     uint   `gorm:"uniqueIndex:uniq_member_rate;index"`
	Grade        string `gorm:"uniqueIndex:uniq_member_rate;size:64"`
	StudentCount int
	MemberCount  int
	MemberRate   float64
	SnapshotDate time.Time `gorm:"index"`
}

// MonthlyTotal is the company-wide period total block from the summary sheet.
type MonthlyTotal struct {
	ID          uint `gorm:"primaryKey"`
	ReportID    uint `gorm:"uniqueIndex:uniq_monthly_total;index"`
	FiscalYear  int  `gorm:"uniqueIndex:uniq_monthly_total"`
	Month       int  `gorm:"uniqueIndex:uniq_monthly_total"`
	TotalSales  float64
	DirectSales float64
	StudioSales float64
	SchoolCount int
	Budget      float64
}

type BranchPeriodSales struct {
	ID         uint   `gorm:"primaryKey"`
	ReportID   uint   `gorm:"uniqueIndex:uniq_branch_period;index"`
	FiscalYear int    `gorm:"uniqueIndex:uniq_branch_period"`
	Month      int    `gorm:"uniqueIndex:uniq_branch_period"`
	Branch     string `gorm:"uniqueIndex:uniq_branch_period;size:64"`
	Sales      float64
}

type ManagerPeriodSales struct {
	ID         uint   `gorm:"primaryKey"`
	ReportID   uint   `gorm:"uniqueIndex:uniq_manager_period;index"`
	FiscalYear int    `gorm:"uniqueIndex:uniq_manager_period"`
	Month      int    `gorm:"uniqueIndex:uniq_manager_period"`
	Manager    string `gorm:"uniqueIndex:uniq_manager_period;size:64"`
	Sales      float64
}

// ManagerAlias maps spelling variants of a manager name to its canonical form.
type ManagerAlias struct {
	Alias         string `gorm:"primaryKey;size:64"`
	CanonicalName string `gorm:"size:64"`
}
