package schema

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Email    string `gorm:"unique;size:254;not null"`
	Password []byte

	// Role is assigned at creation and never changes afterwards.
	Role string `gorm:"size:50;not null"`

	Theses []Thesis `gorm:"foreignKey:StudentId"`
}

// SupervisorAssignment links a lecturer to a student they supervise. The
// composite key guarantees a given pair appears at most once.
type SupervisorAssignment struct {
	LecturerId uuid.UUID `gorm:"type:uuid;primaryKey"`
	StudentId  uuid.UUID `gorm:"type:uuid;primaryKey"`

	RoleMain bool `gorm:"not null;default:true"`

	Lecturer *User `gorm:"foreignKey:LecturerId;constraint:OnDelete:CASCADE"`
	Student  *User `gorm:"foreignKey:StudentId;constraint:OnDelete:CASCADE"`
}

// ChecklistItem is a catalog entry shared across all theses. The key is the
// stable identifier; label and category are display data and may be edited.
type ChecklistItem struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Key      string `gorm:"unique;size:200;not null"`
	Label    string `gorm:"size:300;not null"`
	Category string `gorm:"size:200"`
}

type Thesis struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	StudentId uuid.UUID `gorm:"type:uuid;not null"`
	Student   *User

	Title        string `gorm:"size:500;not null"`
	AbstractText string
	Keywords     string
	Faculty      string `gorm:"size:200"`
	Major        string `gorm:"size:200"`

	// Opaque locator returned by the storage collaborator, set at submission
	// and never cleared.
	FilePath string `gorm:"not null"`

	SubmittedAt   time.Time
	PublishedAt   *time.Time
	YearPublished *int

	CurrentStatus string `gorm:"size:100;not null"`

	Checklist []ThesisChecklist `gorm:"constraint:OnDelete:CASCADE"`
	Approvals []Approval        `gorm:"constraint:OnDelete:CASCADE"`
}

// ThesisChecklist records whether a catalog item has been ticked for a thesis.
// One row per (thesis, item) pair, updated in place.
type ThesisChecklist struct {
	ThesisId uuid.UUID `gorm:"type:uuid;primaryKey"`
	ItemId   uuid.UUID `gorm:"type:uuid;primaryKey"`

	Checked bool `gorm:"not null;default:false"`

	CheckedBy uuid.UUID `gorm:"type:uuid"`
	CheckedAt time.Time

	Thesis *Thesis
	Item   *ChecklistItem `gorm:"foreignKey:ItemId"`
}

// Approval is one entry in the decision ledger for a thesis. Rows are only
// ever inserted, never updated or deleted.
type Approval struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	ThesisId uuid.UUID `gorm:"type:uuid;not null;index"`

	Stage  string `gorm:"size:50;not null"`
	Status string `gorm:"size:50;not null"`
	Notes  string

	DecidedBy uuid.UUID `gorm:"type:uuid"`
	DecidedAt time.Time

	Thesis  *Thesis
	Decider *User `gorm:"foreignKey:DecidedBy"`
}
