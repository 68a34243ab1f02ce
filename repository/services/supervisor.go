package services

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"thesis_repo/repository/auth"
	"thesis_repo/repository/schema"
	"thesis_repo/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SupervisorService maintains the lecturer/student assignment registry and
// the lecturer's view of their supervisees.
type SupervisorService struct {
	db       *gorm.DB
	userAuth auth.IdentityProvider
}

func (s *SupervisorService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)
		r.Use(auth.StudentOnly())

		r.Post("/add", s.AddSupervisor)
		r.Get("/mine", s.MySupervisors)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)
		r.Use(auth.LecturerOnly())

		r.Get("/supervisees", s.MySupervisees)
		r.Get("/supervisees/{student_id}/theses", s.SuperviseeTheses)
		r.Get("/theses/{thesis_id}", s.SuperviseeThesisFeedback)
	})

	return r
}

type addSupervisorRequest struct {
	LecturerEmail string `json:"lecturer_email"`
}

// AddSupervisor links a lecturer to the calling student. Adding the same
// lecturer twice is a no-op success, the existing assignment is kept as is.
// The first supervisor a student adds becomes the main supervisor.
func (s *SupervisorService) AddSupervisor(w http.ResponseWriter, r *http.Request) {
	student, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var params addSupervisorRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	lecturer, err := schema.GetUserByEmail(params.LecturerEmail, s.db)
	if err != nil {
		if errors.Is(err, schema.ErrUserNotFound) {
			http.Error(w, fmt.Sprintf("no user found with email '%v'", params.LecturerEmail), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if lecturer.Role != schema.RoleLecturer {
		http.Error(w, fmt.Sprintf("user '%v' has role %v, supervisors must be lecturers", params.LecturerEmail, lecturer.Role), http.StatusUnprocessableEntity)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		_, err := schema.GetSupervisorAssignment(lecturer.Id, student.Id, txn)
		if err == nil {
			return nil
		}
		if !errors.Is(err, schema.ErrAssignmentNotFound) {
			return CodedError(err, http.StatusInternalServerError)
		}

		var existing int64
		result := txn.Model(&schema.SupervisorAssignment{}).Where("student_id = ?", student.Id).Count(&existing)
		if result.Error != nil {
			slog.Error("sql error counting existing supervisors", "student_id", student.Id, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		assignment := schema.SupervisorAssignment{
			LecturerId: lecturer.Id,
			StudentId:  student.Id,
			RoleMain:   existing == 0,
		}
		result = txn.Create(&assignment)
		if result.Error != nil {
			slog.Error("sql error creating supervisor assignment", "lecturer_id", lecturer.Id, "student_id", student.Id, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error adding supervisor: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteSuccess(w)
}

type SupervisorInfo struct {
	LecturerId uuid.UUID `json:"lecturer_id"`
	Email      string    `json:"email"`
	Main       bool      `json:"main"`
}

func (s *SupervisorService) MySupervisors(w http.ResponseWriter, r *http.Request) {
	student, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var infos []SupervisorInfo
	result := s.db.Model(&schema.SupervisorAssignment{}).
		Select("supervisor_assignments.lecturer_id, users.email, supervisor_assignments.role_main AS main").
		Joins("JOIN users ON users.id = supervisor_assignments.lecturer_id").
		Where("supervisor_assignments.student_id = ?", student.Id).
		Order("users.email").
		Scan(&infos)
	if result.Error != nil {
		slog.Error("sql error listing supervisors", "student_id", student.Id, "error", result.Error)
		http.Error(w, schema.ErrDbAccessFailed.Error(), http.StatusInternalServerError)
		return
	}

	if infos == nil {
		infos = make([]SupervisorInfo, 0)
	}
	utils.WriteJsonResponse(w, infos)
}

type SuperviseeInfo struct {
	StudentId   uuid.UUID `json:"student_id"`
	Email       string    `json:"email"`
	Main        bool      `json:"main"`
	ThesisCount int64     `json:"thesis_count"`
}

// MySupervisees lists the students assigned to the calling lecturer along
// with how many submissions each has on file.
func (s *SupervisorService) MySupervisees(w http.ResponseWriter, r *http.Request) {
	lecturer, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var infos []SuperviseeInfo
	result := s.db.Model(&schema.SupervisorAssignment{}).
		Select("supervisor_assignments.student_id, users.email, supervisor_assignments.role_main AS main, " +
			"(SELECT count(*) FROM theses WHERE theses.student_id = supervisor_assignments.student_id) AS thesis_count").
		Joins("JOIN users ON users.id = supervisor_assignments.student_id").
		Where("supervisor_assignments.lecturer_id = ?", lecturer.Id).
		Order("users.email").
		Scan(&infos)
	if result.Error != nil {
		slog.Error("sql error listing supervisees", "lecturer_id", lecturer.Id, "error", result.Error)
		http.Error(w, schema.ErrDbAccessFailed.Error(), http.StatusInternalServerError)
		return
	}

	if infos == nil {
		infos = make([]SuperviseeInfo, 0)
	}
	utils.WriteJsonResponse(w, infos)
}

func (s *SupervisorService) checkSupervisesStudent(lecturerId, studentId uuid.UUID) error {
	_, err := schema.GetSupervisorAssignment(lecturerId, studentId, s.db)
	if err != nil {
		if errors.Is(err, schema.ErrAssignmentNotFound) {
			return CodedError(fmt.Errorf("student %v is not assigned to lecturer %v", studentId, lecturerId), http.StatusForbidden)
		}
		return CodedError(err, http.StatusInternalServerError)
	}
	return nil
}

func (s *SupervisorService) SuperviseeTheses(w http.ResponseWriter, r *http.Request) {
	lecturer, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	studentId, err := utils.URLParamUUID(r, "student_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.checkSupervisesStudent(lecturer.Id, studentId); err != nil {
		http.Error(w, err.Error(), GetResponseCode(err))
		return
	}

	var theses []schema.Thesis
	result := s.db.Where("student_id = ?", studentId).Order("submitted_at desc").Find(&theses)
	if result.Error != nil {
		slog.Error("sql error listing supervisee theses", "student_id", studentId, "error", result.Error)
		http.Error(w, schema.ErrDbAccessFailed.Error(), http.StatusInternalServerError)
		return
	}

	infos := make([]ThesisInfo, 0, len(theses))
	for _, thesis := range theses {
		infos = append(infos, newThesisInfo(thesis))
	}

	utils.WriteJsonResponse(w, infos)
}

// SuperviseeThesisFeedback gives a lecturer the reviewer-style view of a
// supervisee's thesis, provided the student is actually assigned to them.
func (s *SupervisorService) SuperviseeThesisFeedback(w http.ResponseWriter, r *http.Request) {
	lecturer, err := auth.UserFromContext(r)
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
		http.Error(w, fmt.Sprintf("error loading thesis %v: %v", thesisId, err), GetResponseCode(err))
		return
	}

	if err := s.checkSupervisesStudent(lecturer.Id, feedback.Thesis.StudentId); err != nil {
		http.Error(w, err.Error(), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, feedback)
}
