package services

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"thesis_repo/repository/auth"
	"thesis_repo/repository/schema"
	"thesis_repo/repository/storage"
	"thesis_repo/utils"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxSubmissionBytes = 100 << 20

var validate = validator.New()

type ThesisService struct {
	db       *gorm.DB
	docStore storage.Storage
	userAuth auth.IdentityProvider
}

func (s *ThesisService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)

		r.Get("/lecturers", s.ListLecturers)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)
		r.Use(auth.StudentOnly())

		r.With(checkSufficientStorage(s.docStore)).Post("/submit", s.Submit)
		r.Get("/mine", s.Mine)
		r.Get("/{thesis_id}/feedback", s.Feedback)
		r.Get("/{thesis_id}/document", s.Download)
	})

	return r
}

type submissionMeta struct {
	Title    string `json:"title" validate:"required,min=1"`
	Abstract string `json:"abstract"`
	Keywords string `json:"keywords"`
	Faculty  string `json:"faculty"`
	Major    string `json:"major"`
}

type ThesisInfo struct {
	Id            uuid.UUID  `json:"id"`
	StudentId     uuid.UUID  `json:"student_id"`
	Title         string     `json:"title"`
	Abstract      string     `json:"abstract"`
	Keywords      string     `json:"keywords"`
	Faculty       string     `json:"faculty"`
	Major         string     `json:"major"`
	Status        string     `json:"status"`
	SubmittedAt   time.Time  `json:"submitted_at"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	YearPublished *int       `json:"year_published,omitempty"`
}

func newThesisInfo(thesis schema.Thesis) ThesisInfo {
	return ThesisInfo{
		Id:            thesis.Id,
		StudentId:     thesis.StudentId,
		Title:         thesis.Title,
		Abstract:      thesis.AbstractText,
		Keywords:      thesis.Keywords,
		Faculty:       thesis.Faculty,
		Major:         thesis.Major,
		Status:        thesis.CurrentStatus,
		SubmittedAt:   thesis.SubmittedAt,
		PublishedAt:   thesis.PublishedAt,
		YearPublished: thesis.YearPublished,
	}
}

// Submit accepts a multipart request with a json "meta" part and a "file"
// part holding the document. A new thesis record is created for each
// submission, so a student can have multiple attempts on file.
func (s *ThesisService) Submit(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := r.ParseMultipartForm(maxSubmissionBytes); err != nil {
		http.Error(w, fmt.Sprintf("error parsing multipart request: %v", err), http.StatusBadRequest)
		return
	}

	var meta submissionMeta
	if err := utils.ParseMultipartJson(r, "meta", &meta); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := validate.Struct(&meta); err != nil {
		http.Error(w, fmt.Sprintf("invalid submission metadata: %v", err), http.StatusUnprocessableEntity)
		return
	}

	// The validator only catches empty strings, a title of whitespace must be
	// rejected too.
	if strings.TrimSpace(meta.Title) == "" {
		http.Error(w, "submission title must not be blank", http.StatusUnprocessableEntity)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("missing 'file' part in submission: %v", err), http.StatusUnprocessableEntity)
		return
	}
	defer file.Close()

	if header.Size == 0 {
		http.Error(w, "submitted file is empty", http.StatusUnprocessableEntity)
		return
	}

	submittedAt := time.Now().UTC()
	thesisId := uuid.New()

	objectKey := filepath.Join(submittedAt.Format("2006-01"), thesisId.String()+filepath.Ext(header.Filename))
	locator, err := s.docStore.Store(objectKey, file)
	if err != nil {
		slog.Error("error storing submitted document", "thesis_id", thesisId, "error", err)
		http.Error(w, fmt.Sprintf("error storing submitted document: %v", err), http.StatusInternalServerError)
		return
	}

	thesis := schema.Thesis{
		Id:            thesisId,
		StudentId:     user.Id,
		Title:         meta.Title,
		AbstractText:  meta.Abstract,
		Keywords:      meta.Keywords,
		Faculty:       meta.Faculty,
		Major:         meta.Major,
		FilePath:      locator,
		SubmittedAt:   submittedAt,
		CurrentStatus: schema.StatusLibraryReview,
	}

	result := s.db.Create(&thesis)
	if result.Error != nil {
		slog.Error("sql error creating thesis record", "thesis_id", thesisId, "error", result.Error)
		http.Error(w, schema.ErrDbAccessFailed.Error(), http.StatusInternalServerError)
		return
	}

	submissionMetric.Inc()
	slog.Info("thesis submitted", "thesis_id", thesisId, "student_id", user.Id)

	utils.WriteJsonResponse(w, newThesisInfo(thesis))
}

func (s *ThesisService) Mine(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var theses []schema.Thesis
	result := s.db.Where("student_id = ?", user.Id).Order("submitted_at desc").Find(&theses)
	if result.Error != nil {
		slog.Error("sql error listing student theses", "student_id", user.Id, "error", result.Error)
		http.Error(w, schema.ErrDbAccessFailed.Error(), http.StatusInternalServerError)
		return
	}

	infos := make([]ThesisInfo, 0, len(theses))
	for _, thesis := range theses {
		infos = append(infos, newThesisInfo(thesis))
	}

	utils.WriteJsonResponse(w, infos)
}

type ChecklistEntry struct {
	Key       string    `json:"key"`
	Label     string    `json:"label"`
	Category  string    `json:"category"`
	Checked   bool      `json:"checked"`
	CheckedBy uuid.UUID `json:"checked_by"`
	CheckedAt time.Time `json:"checked_at"`
}

type ApprovalInfo struct {
	Stage     string    `json:"stage"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes"`
	DecidedBy uuid.UUID `json:"decided_by"`
	DecidedAt time.Time `json:"decided_at"`
}

type ThesisFeedback struct {
	Thesis    ThesisInfo       `json:"thesis"`
	Checklist []ChecklistEntry `json:"checklist"`
	Approvals []ApprovalInfo   `json:"approvals"`
}

func buildThesisFeedback(thesisId uuid.UUID, db *gorm.DB) (ThesisFeedback, error) {
	thesis, err := schema.GetThesis(thesisId, db, true)
	if err != nil {
		if errors.Is(err, schema.ErrThesisNotFound) {
			return ThesisFeedback{}, CodedError(err, http.StatusNotFound)
		}
		return ThesisFeedback{}, CodedError(err, http.StatusInternalServerError)
	}

	approvals, err := schema.ListApprovals(thesisId, db)
	if err != nil {
		return ThesisFeedback{}, CodedError(err, http.StatusInternalServerError)
	}

	feedback := ThesisFeedback{
		Thesis:    newThesisInfo(thesis),
		Checklist: make([]ChecklistEntry, 0, len(thesis.Checklist)),
		Approvals: make([]ApprovalInfo, 0, len(approvals)),
	}

	for _, row := range thesis.Checklist {
		entry := ChecklistEntry{Checked: row.Checked, CheckedBy: row.CheckedBy, CheckedAt: row.CheckedAt}
		if row.Item != nil {
			entry.Key = row.Item.Key
			entry.Label = row.Item.Label
			entry.Category = row.Item.Category
		}
		feedback.Checklist = append(feedback.Checklist, entry)
	}

	for _, approval := range approvals {
		feedback.Approvals = append(feedback.Approvals, ApprovalInfo{
			Stage:     approval.Stage,
			Status:    approval.Status,
			Notes:     approval.Notes,
			DecidedBy: approval.DecidedBy,
			DecidedAt: approval.DecidedAt,
		})
	}

	return feedback, nil
}

// Feedback returns the checklist state and full decision history for one of
// the student's own theses.
func (s *ThesisService) Feedback(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	thesisId, err := utils.URLParamUUID(r, "thesis_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	feedback, err := buildThesisFeedback(thesisId, s.db)
	if err != nil {
		http.Error(w, fmt.Sprintf("error loading thesis feedback: %v", err), GetResponseCode(err))
		return
	}

	if feedback.Thesis.StudentId != user.Id {
		http.Error(w, fmt.Sprintf("thesis %v does not belong to user %v", thesisId, user.Id), http.StatusForbidden)
		return
	}

	utils.WriteJsonResponse(w, feedback)
}

// Download streams the stored document for one of the student's own theses.
func (s *ThesisService) Download(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	thesisId, err := utils.URLParamUUID(r, "thesis_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	thesis, err := getThesisForUpdate(thesisId, s.db)
	if err != nil {
		http.Error(w, fmt.Sprintf("error loading thesis %v: %v", thesisId, err), GetResponseCode(err))
		return
	}

	if thesis.StudentId != user.Id {
		http.Error(w, fmt.Sprintf("thesis %v does not belong to user %v", thesisId, user.Id), http.StatusForbidden)
		return
	}

	serveThesisDocument(w, s.docStore, thesis)
}

type LecturerInfo struct {
	Id    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// ListLecturers is the directory students use to find a supervisor to add.
func (s *ThesisService) ListLecturers(w http.ResponseWriter, r *http.Request) {
	var lecturers []schema.User
	result := s.db.Where("role = ?", schema.RoleLecturer).Order("email").Find(&lecturers)
	if result.Error != nil {
		slog.Error("sql error listing lecturers", "error", result.Error)
		http.Error(w, schema.ErrDbAccessFailed.Error(), http.StatusInternalServerError)
		return
	}

	infos := make([]LecturerInfo, 0, len(lecturers))
	for _, lecturer := range lecturers {
		infos = append(infos, LecturerInfo{Id: lecturer.Id, Email: lecturer.Email})
	}

	utils.WriteJsonResponse(w, infos)
}
