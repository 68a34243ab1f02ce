package schema

import "fmt"

const (
	RoleStudent  = "STUDENT"
	RoleLecturer = "LECTURER"
	RoleAdmin    = "ADMIN"
)

func CheckValidRole(role string) error {
	if role == RoleStudent || role == RoleLecturer || role == RoleAdmin {
		return nil
	}
	return fmt.Errorf("invalid role '%v', must be 'STUDENT', 'LECTURER', or 'ADMIN'", role)
}

// Thesis statuses. The SUPERVISOR_* statuses exist only so historical rows
// remain readable; no code path produces them or transitions out of them
// except the one-time migration in cmd/migration.
const (
	StatusDraft     = "DRAFT"
	StatusSubmitted = "SUBMITTED"

	StatusSupervisorReview   = "SUPERVISOR_REVIEW"   // Deprecated
	StatusSupervisorChanges  = "SUPERVISOR_CHANGES"  // Deprecated
	StatusSupervisorApproved = "SUPERVISOR_APPROVED" // Deprecated

	StatusLibraryReview  = "LIBRARY_REVIEW"
	StatusLibraryChanges = "LIBRARY_CHANGES"
	StatusApproved       = "APPROVED"
	StatusPublished      = "PUBLISHED"
)

func CheckValidStatus(status string) error {
	switch status {
	case StatusDraft, StatusSubmitted,
		StatusSupervisorReview, StatusSupervisorChanges, StatusSupervisorApproved,
		StatusLibraryReview, StatusLibraryChanges, StatusApproved, StatusPublished:
		return nil
	}
	return fmt.Errorf("invalid thesis status '%v'", status)
}

// Approval stages. Only LIBRARY is active; SUPERVISOR is kept for reading
// historical ledger rows.
const (
	StageSupervisor = "SUPERVISOR"
	StageLibrary    = "LIBRARY"
)

const (
	ApprovalPending          = "PENDING"
	ApprovalChangesRequested = "CHANGES_REQUESTED"
	ApprovalApproved         = "APPROVED"
	ApprovalNotApproved      = "NOT_APPROVED"
)
