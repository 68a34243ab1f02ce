package schema

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrThesisNotFound        = errors.New("thesis not found")
	ErrChecklistItemNotFound = errors.New("checklist item not found")
	ErrAssignmentNotFound    = errors.New("supervisor assignment not found")
	ErrDbAccessFailed        = errors.New("db access failed")
)

func GetUser(userId uuid.UUID, db *gorm.DB) (User, error) {
	var user User

	result := db.First(&user, "id = ?", userId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return user, ErrUserNotFound
		}
		slog.Error("sql error in get user", "user_id", userId, "error", result.Error)
		return user, ErrDbAccessFailed
	}

	return user, nil
}

func GetUserByEmail(email string, db *gorm.DB) (User, error) {
	var user User

	result := db.First(&user, "email = ?", email)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return user, ErrUserNotFound
		}
		slog.Error("sql error in get user by email", "error", result.Error)
		return user, ErrDbAccessFailed
	}

	return user, nil
}

func GetThesis(thesisId uuid.UUID, db *gorm.DB, loadChecklist bool) (Thesis, error) {
	var thesis Thesis

	var result *gorm.DB = db
	if loadChecklist {
		result = result.Preload("Checklist").Preload("Checklist.Item")
	}
	result = result.First(&thesis, "id = ?", thesisId)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return thesis, ErrThesisNotFound
		}
		slog.Error("sql error in get thesis", "thesis_id", thesisId, "error", result.Error)
		return thesis, ErrDbAccessFailed
	}

	return thesis, nil
}

func GetChecklistItemByKey(key string, db *gorm.DB) (ChecklistItem, error) {
	var item ChecklistItem

	result := db.First(&item, "key = ?", key)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return item, ErrChecklistItemNotFound
		}
		slog.Error("sql error in get checklist item", "key", key, "error", result.Error)
		return item, ErrDbAccessFailed
	}

	return item, nil
}

// ListApprovals returns the full decision ledger for a thesis in decision
// order.
func ListApprovals(thesisId uuid.UUID, db *gorm.DB) ([]Approval, error) {
	var approvals []Approval
	result := db.Order("decided_at asc").Find(&approvals, "thesis_id = ?", thesisId)
	if result.Error != nil {
		slog.Error("sql error listing approvals", "thesis_id", thesisId, "error", result.Error)
		return nil, ErrDbAccessFailed
	}
	return approvals, nil
}

func GetSupervisorAssignment(lecturerId, studentId uuid.UUID, db *gorm.DB) (SupervisorAssignment, error) {
	var assignment SupervisorAssignment
	result := db.First(&assignment, "lecturer_id = ? and student_id = ?", lecturerId, studentId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return assignment, ErrAssignmentNotFound
		}
		slog.Error("sql error in get supervisor assignment", "lecturer_id", lecturerId, "student_id", studentId, "error", result.Error)
		return assignment, ErrDbAccessFailed
	}

	return assignment, nil
}
