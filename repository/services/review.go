package services

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"thesis_repo/repository/auth"
	"thesis_repo/repository/schema"
	"thesis_repo/repository/storage"
	"thesis_repo/utils"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReviewService implements the library review workflow. It owns the status
// transitions of a thesis, the approval ledger, and the checklist state.
type ReviewService struct {
	db       *gorm.DB
	docStore storage.Storage
	userAuth auth.IdentityProvider
}

func (s *ReviewService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)
		r.Use(auth.AdminOnly())

		r.Get("/submissions", s.ListSubmissions)
		r.Get("/theses", s.ListByStatus)
		r.Get("/catalog", s.ListCatalog)

		r.Route("/theses/{thesis_id}", func(r chi.Router) {
			r.Get("/", s.GetThesis)
			r.Post("/decision", s.Decide)
			r.Post("/publish", s.Publish)
			r.Get("/checklist", s.GetChecked)
			r.Post("/checklist", s.ApplyChecklist)
			r.Get("/document", s.DownloadDocument)
		})
	})

	return r
}

type decisionOutcome struct {
	thesisStatus   string
	approvalStatus string
}

// decisionOutcomes is the single source of truth mapping a reviewer's
// decision token to the resulting thesis status and ledger entry. Tokens not
// present here are rejected without any mutation.
var decisionOutcomes = map[string]decisionOutcome{
	"APPROVE":            {thesisStatus: schema.StatusApproved, approvalStatus: schema.ApprovalApproved},
	"NOT_APPROVED":       {thesisStatus: schema.StatusLibraryChanges, approvalStatus: schema.ApprovalChangesRequested},
	"REVISIONS_REQUIRED": {thesisStatus: schema.StatusLibraryChanges, approvalStatus: schema.ApprovalChangesRequested},
}

// reviewableStatuses are the only statuses a decision may act on. Legacy
// supervisor stage statuses accept no new transitions.
var reviewableStatuses = []string{schema.StatusLibraryReview, schema.StatusLibraryChanges}

func parseDecisionToken(token string) (decisionOutcome, error) {
	outcome, ok := decisionOutcomes[strings.ToUpper(strings.TrimSpace(token))]
	if !ok {
		accepted := make([]string, 0, len(decisionOutcomes))
		for t := range decisionOutcomes {
			accepted = append(accepted, t)
		}
		slices.Sort(accepted)
		return decisionOutcome{}, fmt.Errorf("unrecognized decision '%v', accepted decisions are %v", token, strings.Join(accepted, ", "))
	}
	return outcome, nil
}

type decisionRequest struct {
	Decision string `json:"decision"`
	Notes    string `json:"notes"`
}

type DecisionResponse struct {
	ThesisId uuid.UUID    `json:"thesis_id"`
	Status   string       `json:"status"`
	Approval ApprovalInfo `json:"approval"`
}

// Decide applies a reviewer decision to a thesis. The status transition and
// the approval ledger append commit in one transaction, guarded on the status
// observed at the start of the transaction so a concurrent decision cannot be
// applied on top of a stale read.
func (s *ReviewService) Decide(w http.ResponseWriter, r *http.Request) {
	reviewer, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	thesisId, err := utils.URLParamUUID(r, "thesis_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params decisionRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	outcome, err := parseDecisionToken(params.Decision)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	approval := schema.Approval{
		Id:        uuid.New(),
		ThesisId:  thesisId,
		Stage:     schema.StageLibrary,
		Status:    outcome.approvalStatus,
		Notes:     params.Notes,
		DecidedBy: reviewer.Id,
		DecidedAt: time.Now().UTC(),
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		thesis, err := getThesisForUpdate(thesisId, txn)
		if err != nil {
			return err
		}

		if !slices.Contains(reviewableStatuses, thesis.CurrentStatus) {
			return CodedError(fmt.Errorf(
				"thesis %v has status %v, decisions are only accepted in status %v",
				thesisId, thesis.CurrentStatus, strings.Join(reviewableStatuses, " or "),
			), http.StatusConflict)
		}

		result := txn.Model(&schema.Thesis{}).
			Where("id = ? AND current_status = ?", thesisId, thesis.CurrentStatus).
			Update("current_status", outcome.thesisStatus)
		if result.Error != nil {
			slog.Error("sql error updating thesis status", "thesis_id", thesisId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		if result.RowsAffected == 0 {
			return CodedError(ErrStaleThesisStatus, http.StatusConflict)
		}

		createResult := txn.Create(&approval)
		if createResult.Error != nil {
			slog.Error("sql error appending approval record", "thesis_id", thesisId, "error", createResult.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error applying decision to thesis %v: %v", thesisId, err), GetResponseCode(err))
		return
	}

	decisionMetric.WithLabelValues(outcome.approvalStatus).Inc()
	slog.Info("review decision applied", "thesis_id", thesisId, "status", outcome.thesisStatus, "decided_by", reviewer.Id)

	utils.WriteJsonResponse(w, DecisionResponse{
		ThesisId: thesisId,
		Status:   outcome.thesisStatus,
		Approval: ApprovalInfo{
			Stage:     approval.Stage,
			Status:    approval.Status,
			Notes:     approval.Notes,
			DecidedBy: approval.DecidedBy,
			DecidedAt: approval.DecidedAt,
		},
	})
}

type PublishResponse struct {
	ThesisId      uuid.UUID  `json:"thesis_id"`
	Status        string     `json:"status"`
	PublishedAt   *time.Time `json:"published_at"`
	YearPublished *int       `json:"year_published,omitempty"`
}

// Publish moves an approved thesis into the terminal published state and
// stamps the publication metadata. The year published is backfilled from the
// submission year when it was never set.
func (s *ReviewService) Publish(w http.ResponseWriter, r *http.Request) {
	thesisId, err := utils.URLParamUUID(r, "thesis_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	publishedAt := time.Now().UTC()
	var yearPublished *int

	err = s.db.Transaction(func(txn *gorm.DB) error {
		thesis, err := getThesisForUpdate(thesisId, txn)
		if err != nil {
			return err
		}

		if thesis.CurrentStatus != schema.StatusApproved {
			return CodedError(fmt.Errorf(
				"thesis %v has status %v, publishing requires status %v",
				thesisId, thesis.CurrentStatus, schema.StatusApproved,
			), http.StatusConflict)
		}

		updates := map[string]interface{}{
			"current_status": schema.StatusPublished,
			"published_at":   publishedAt,
		}
		if thesis.YearPublished == nil && !thesis.SubmittedAt.IsZero() {
			year := thesis.SubmittedAt.Year()
			updates["year_published"] = year
			yearPublished = &year
		} else {
			yearPublished = thesis.YearPublished
		}

		result := txn.Model(&schema.Thesis{}).
			Where("id = ? AND current_status = ?", thesisId, schema.StatusApproved).
			Updates(updates)
		if result.Error != nil {
			slog.Error("sql error publishing thesis", "thesis_id", thesisId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		if result.RowsAffected == 0 {
			return CodedError(ErrStaleThesisStatus, http.StatusConflict)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error publishing thesis %v: %v", thesisId, err), GetResponseCode(err))
		return
	}

	publishMetric.Inc()
	slog.Info("thesis published", "thesis_id", thesisId)

	utils.WriteJsonResponse(w, PublishResponse{
		ThesisId:      thesisId,
		Status:        schema.StatusPublished,
		PublishedAt:   &publishedAt,
		YearPublished: yearPublished,
	})
}

type checklistSelection struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Category string `json:"category"`
}

type applyChecklistRequest struct {
	Selections []checklistSelection `json:"selections"`
	Replace    bool                 `json:"replace"`
}

// ApplyChecklist upserts the checked state for the given selections, lazily
// creating unknown catalog items. With replace set, checked items outside the
// incoming set are unchecked with their own audit stamp. Blank keys are
// skipped rather than failing the batch. The whole batch commits atomically.
func (s *ReviewService) ApplyChecklist(w http.ResponseWriter, r *http.Request) {
	reviewer, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	thesisId, err := utils.URLParamUUID(r, "thesis_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params applyChecklistRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	checkedAt := time.Now().UTC()

	err = s.db.Transaction(func(txn *gorm.DB) error {
		if _, err := getThesisForUpdate(thesisId, txn); err != nil {
			return err
		}

		appliedItems := make([]uuid.UUID, 0, len(params.Selections))

		for _, selection := range params.Selections {
			key := strings.TrimSpace(selection.Key)
			if key == "" {
				continue
			}

			item, err := findOrCreateChecklistItem(txn, key, selection.Label, selection.Category)
			if err != nil {
				return err
			}

			row := schema.ThesisChecklist{
				ThesisId:  thesisId,
				ItemId:    item.Id,
				Checked:   true,
				CheckedBy: reviewer.Id,
				CheckedAt: checkedAt,
			}
			result := txn.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "thesis_id"}, {Name: "item_id"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"checked":    true,
					"checked_by": reviewer.Id,
					"checked_at": checkedAt,
				}),
			}).Create(&row)
			if result.Error != nil {
				slog.Error("sql error upserting checklist row", "thesis_id", thesisId, "item_id", item.Id, "error", result.Error)
				return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
			}

			appliedItems = append(appliedItems, item.Id)
		}

		if params.Replace {
			uncheck := txn.Model(&schema.ThesisChecklist{}).
				Where("thesis_id = ? AND checked = ?", thesisId, true)
			if len(appliedItems) > 0 {
				uncheck = uncheck.Where("item_id NOT IN ?", appliedItems)
			}
			result := uncheck.Updates(map[string]interface{}{
				"checked":    false,
				"checked_by": reviewer.Id,
				"checked_at": checkedAt,
			})
			if result.Error != nil {
				slog.Error("sql error unchecking replaced checklist rows", "thesis_id", thesisId, "error", result.Error)
				return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
			}
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error updating checklist for thesis %v: %v", thesisId, err), GetResponseCode(err))
		return
	}

	utils.WriteSuccess(w)
}

type CheckedKeysResponse struct {
	Keys []string `json:"keys"`
}

// GetChecked returns the catalog keys currently checked for a thesis.
func (s *ReviewService) GetChecked(w http.ResponseWriter, r *http.Request) {
	thesisId, err := utils.URLParamUUID(r, "thesis_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := checkThesisExists(thesisId, s.db); err != nil {
		http.Error(w, err.Error(), GetResponseCode(err))
		return
	}

	keys := make([]string, 0)
	result := s.db.Model(&schema.ThesisChecklist{}).
		Joins("JOIN checklist_items ON checklist_items.id = thesis_checklists.item_id").
		Where("thesis_checklists.thesis_id = ? AND thesis_checklists.checked = ?", thesisId, true).
		Order("checklist_items.key").
		Pluck("checklist_items.key", &keys)
	if result.Error != nil {
		slog.Error("sql error listing checked checklist keys", "thesis_id", thesisId, "error", result.Error)
		http.Error(w, schema.ErrDbAccessFailed.Error(), http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, CheckedKeysResponse{Keys: keys})
}

// GetThesis returns the full reviewer view of a thesis, including checklist
// state and the decision history.
func (s *ReviewService) GetThesis(w http.ResponseWriter, r *http.Request) {
	thesisId, err := utils.URLParamUUID(r, "thesis_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	feedback, err := buildThesisFeedback(thesisId, s.db)
	if err != nil {
		http.Error(w, fmt.Sprintf("error loading thesis %v: %v", thesisId, err), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, feedback)
}

// DownloadDocument streams the submitted document so a reviewer can inspect
// it against the checklist.
func (s *ReviewService) DownloadDocument(w http.ResponseWriter, r *http.Request) {
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

	serveThesisDocument(w, s.docStore, thesis)
}

func (s *ReviewService) ListByStatus(w http.ResponseWriter, r *http.Request) {
	query := s.db.Order("submitted_at desc")

	status := r.URL.Query().Get("status")
	if status != "" {
		if err := schema.CheckValidStatus(status); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		query = query.Where("current_status = ?", status)
	}

	var theses []schema.Thesis
	result := query.Find(&theses)
	if result.Error != nil {
		slog.Error("sql error listing theses by status", "status", status, "error", result.Error)
		http.Error(w, schema.ErrDbAccessFailed.Error(), http.StatusInternalServerError)
		return
	}

	infos := make([]ThesisInfo, 0, len(theses))
	for _, thesis := range theses {
		infos = append(infos, newThesisInfo(thesis))
	}

	utils.WriteJsonResponse(w, infos)
}

type SubmissionInfo struct {
	ThesisInfo
	StudentEmail string `json:"student_email"`
}

// ListSubmissions gives the reviewer an overview of every submission along
// with the submitting student.
func (s *ReviewService) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	type submissionRow struct {
		schema.Thesis
		Email string
	}

	var rows []submissionRow
	result := s.db.Model(&schema.Thesis{}).
		Select("theses.*, users.email").
		Joins("JOIN users ON users.id = theses.student_id").
		Order("theses.submitted_at desc").
		Scan(&rows)
	if result.Error != nil {
		slog.Error("sql error listing submissions", "error", result.Error)
		http.Error(w, schema.ErrDbAccessFailed.Error(), http.StatusInternalServerError)
		return
	}

	infos := make([]SubmissionInfo, 0, len(rows))
	for _, row := range rows {
		infos = append(infos, SubmissionInfo{ThesisInfo: newThesisInfo(row.Thesis), StudentEmail: row.Email})
	}

	utils.WriteJsonResponse(w, infos)
}
