package model

import "gorm.io/gorm"

// AutoMigrate runs GORM auto-migration for all models and creates custom indexes.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&User{},
		&Category{},
		&Region{},
		&Meetup{},
		&Participation{},
	); err != nil {
		return err
	}

	// Listing index: non-deleted meetups filtered by region/category/status
	// and ordered by start time.
	if err := db.Exec(
		"CREATE INDEX IF NOT EXISTS idx_meetups_list " +
			"ON meetups (region_code, category_id, status, start_at) WHERE deleted_at IS NULL",
	).Error; err != nil {
		return err
	}

	// Capacity counting index: approve re-counts APPROVED rows per meetup
	// while holding the aggregate lock.
	return db.Exec(
		"CREATE INDEX IF NOT EXISTS idx_participations_capacity " +
			"ON participations (meetup_id) WHERE status = 'APPROVED'",
	).Error
}
