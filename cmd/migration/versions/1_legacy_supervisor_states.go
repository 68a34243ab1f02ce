package versions

import (
	"log"
	"thesis_repo/repository/schema"

	"gorm.io/gorm"
)

// Migration_1_legacy_supervisor_states moves theses stranded in the retired
// supervisor review stage into the library review queue. The supervisor stage
// no longer accepts decisions, so without this backfill those records could
// never progress. Approval ledger rows from the supervisor stage are left
// untouched, they remain valid history.
func Migration_1_legacy_supervisor_states(txn *gorm.DB) error {
	legacy := []string{
		schema.StatusSupervisorReview,
		schema.StatusSupervisorChanges,
		schema.StatusSupervisorApproved,
	}

	result := txn.Model(&schema.Thesis{}).
		Where("current_status IN ?", legacy).
		Update("current_status", schema.StatusLibraryReview)
	if result.Error != nil {
		return result.Error
	}

	log.Printf("moved %d theses from supervisor stage statuses to %v", result.RowsAffected, schema.StatusLibraryReview)
	return nil
}
