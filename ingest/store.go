package ingest

import (
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func OpenDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(
		&Report{},
		&School{},
		&SchoolExternalID{},
		&Event{},
		&SchoolPeriodSales{},
		&EventPeriodSales{},
		&MemberRate{},
		&MonthlyTotal{},
		&BranchPeriodSales{},
		&ManagerPeriodSales{},
		&ManagerAlias{},
	); err != nil {
		return nil, err
	}
	return db, nil
}

// SeedManagerAliases upserts operator-maintained alias mappings into the
// store so they survive across runs and config edits.
func SeedManagerAliases(db *gorm.DB, aliases map[string]string) error {
	for alias, canonical := range aliases {
		if alias == "" || canonical == "" {
			continue
		}
		rec := ManagerAlias{Alias: alias, CanonicalName: canonical}
		if err := db.Save(&rec).Error; err != nil {
			return err
		}
	}
	return nil
}
