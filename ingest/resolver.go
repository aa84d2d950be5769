package ingest

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrSchoolNotFound is returned by a non-creating resolver when a name
// matches no registered school, even approximately.
var ErrSchoolNotFound = errors.New("school not found")

// SchoolAttributes carries the classification fields a sheet row may supply
// for the school it names. Empty fields never erase stored values.
type SchoolAttributes struct {
	Attribute string
	Studio    string
	Branch    string
	Manager   string
}

// NameScorer rates how likely two normalized school names refer to the same
// school. A score of 0 means no match; higher is better.
type NameScorer interface {
	Score(a, b string) float64
}

// SubstringScorer accepts a match when one normalized name contains the
// other and the rune-length difference stays within MaxLenDiff. The bound
// keeps unrelated short names from being glued together.
type SubstringScorer struct {
	MaxLenDiff int
}

func (s SubstringScorer) Score(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	if !strings.Contains(a, b) && !strings.Contains(b, a) {
		return 0
	}
	maxDiff := s.MaxLenDiff
	if maxDiff <= 0 {
		maxDiff = 10
	}
	diff := len([]rune(a)) - len([]rune(b))
	if diff < 0 {
		diff = -diff
	}
	if diff > maxDiff {
		return 0
	}
	return 1 - float64(diff)/float64(maxDiff+1)
}

// Resolver maps raw school names (and optional external ids) from sheet rows
// to stable internal school ids. It runs against the import's transaction:
// its inserts and updates commit or roll back with the rest of the report.
type Resolver struct {
	tx            *gorm.DB
	scorer        NameScorer
	nameMappings  map[string]string
	createMissing bool
}

func NewResolver(tx *gorm.DB, scorer NameScorer, nameMappings map[string]string, createMissing bool) *Resolver {
	if scorer == nil {
		scorer = SubstringScorer{MaxLenDiff: 10}
	}
	return &Resolver{
		tx:            tx,
		scorer:        scorer,
		nameMappings:  nameMappings,
		createMissing: createMissing,
	}
}

// Resolve returns the internal id for a school named in a sheet row.
// Lookup order: operator name mapping, external-id mapping, exact
// normalized-name match, approximate match, then first-seen registration
// (when the resolver creates). Attributes are applied under the
// largest-external-id-wins rule.
func (r *Resolver) Resolve(rawName string, externalID *int, attrs SchoolAttributes) (uint, error) {
	name := strings.TrimSpace(rawName)
	if mapped, ok := r.nameMappings[name]; ok {
		name = mapped
	}
	canonical := StripYearMarkers(name)
	normalized := NormalizeSchoolName(name)

	if externalID != nil {
		var ext SchoolExternalID
		err := r.tx.Where("external_id = ?", *externalID).First(&ext).Error
		if err == nil {
			if err := r.updateIfNewer(ext.SchoolID, *externalID, attrs); err != nil {
				return 0, err
			}
			return ext.SchoolID, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, err
		}
	}

	school, err := r.findByName(canonical, normalized)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}
	if err == nil {
		if externalID != nil {
			if err := r.registerExternalID(*externalID, school.ID, rawName); err != nil {
				return 0, err
			}
			if err := r.updateIfNewer(school.ID, *externalID, attrs); err != nil {
				return 0, err
			}
		} else if err := r.applyAttributes(school.ID, attrs); err != nil {
			return 0, err
		}
		return school.ID, nil
	}

	if !r.createMissing {
		return 0, ErrSchoolNotFound
	}

	created, err := r.create(canonical, normalized, attrs)
	if err != nil {
		return 0, err
	}
	if externalID != nil {
		if err := r.registerExternalID(*externalID, created.ID, rawName); err != nil {
			return 0, err
		}
	}
	return created.ID, nil
}

// findByName tries an exact match on the canonical name, then on the
// normalized base name, then falls back to approximate matching against all
// registered schools.
func (r *Resolver) findByName(canonical, normalized string) (*School, error) {
	var school School
	err := r.tx.Where("name = ?", canonical).First(&school).Error
	if err == nil {
		return &school, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = r.tx.Where("base_name = ?", normalized).First(&school).Error
	if err == nil {
		return &school, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var all []School
	if err := r.tx.Find(&all).Error; err != nil {
		return nil, err
	}
	var best *School
	bestScore := 0.0
	for i := range all {
		base := all[i].BaseName
		if base == "" {
			base = NormalizeSchoolName(all[i].Name)
		}
		if s := r.scorer.Score(normalized, base); s > bestScore {
			bestScore = s
			best = &all[i]
		}
	}
	if best == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return best, nil
}

func (r *Resolver) create(canonical, normalized string, attrs SchoolAttributes) (*School, error) {
	var maxLogical uint
	row := r.tx.Model(&School{}).Select("COALESCE(MAX(logical_id), 0)").Row()
	if err := row.Scan(&maxLogical); err != nil {
		return nil, err
	}
	school := School{
		LogicalID: maxLogical + 1,
		Name:      canonical,
		BaseName:  normalized,
		Attribute: attrs.Attribute,
		Studio:    attrs.Studio,
		Branch:    attrs.Branch,
		Manager:   attrs.Manager,
	}
	if err := r.tx.Create(&school).Error; err != nil {
		return nil, err
	}
	return &school, nil
}

func (r *Resolver) registerExternalID(externalID int, schoolID uint, originalName string) error {
	rec := SchoolExternalID{
		ExternalID:   externalID,
		SchoolID:     schoolID,
		OriginalName: strings.TrimSpace(originalName),
	}
	return r.tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error
}

// updateIfNewer applies attrs only when the supplying external id is at
// least as large as every id already mapped to the school. Larger external
// ids are assumed to have been issued later and to carry fresher data.
func (r *Resolver) updateIfNewer(schoolID uint, newExternalID int, attrs SchoolAttributes) error {
	var maxExternal int
	row := r.tx.Model(&SchoolExternalID{}).
		Select("COALESCE(MAX(external_id), 0)").
		Where("school_id = ?", schoolID).
		Row()
	if err := row.Scan(&maxExternal); err != nil {
		return err
	}
	if newExternalID < maxExternal {
		return nil
	}
	return r.applyAttributes(schoolID, attrs)
}

func (r *Resolver) applyAttributes(schoolID uint, attrs SchoolAttributes) error {
	updates := map[string]any{}
	if attrs.Attribute != "" {
		updates["attribute"] = attrs.Attribute
	}
	if attrs.Studio != "" {
		updates["studio"] = attrs.Studio
	}
	if attrs.Branch != "" {
		updates["branch"] = attrs.Branch
	}
	if attrs.Manager != "" {
		updates["manager"] = attrs.Manager
	}
	if len(updates) == 0 {
		return nil
	}
	return r.tx.Model(&School{}).Where("id = ?", schoolID).Updates(updates).Error
}
