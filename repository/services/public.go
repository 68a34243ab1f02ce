package services

import (
	"log/slog"
	"net/http"
	"strconv"
	"thesis_repo/repository/schema"
	"thesis_repo/utils"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

// PublicService is the unauthenticated catalog of published theses.
type PublicService struct {
	db *gorm.DB
}

func (s *PublicService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/theses", s.Search)

	return r
}

// Search filters published theses by free text, publication year, faculty,
// major, and author email. Only theses in the terminal published state are
// ever visible here.
func (s *PublicService) Search(w http.ResponseWriter, r *http.Request) {
	query := s.db.Model(&schema.Thesis{}).
		Joins("JOIN users ON users.id = theses.student_id").
		Where("theses.current_status = ?", schema.StatusPublished).
		Order("theses.published_at desc")

	params := r.URL.Query()

	if q := params.Get("q"); q != "" {
		pattern := "%" + q + "%"
		query = query.Where("theses.title LIKE ? OR theses.abstract_text LIKE ? OR theses.keywords LIKE ?", pattern, pattern, pattern)
	}
	if year := params.Get("year"); year != "" {
		y, err := strconv.Atoi(year)
		if err != nil {
			http.Error(w, "invalid 'year' query parameter, must be an integer", http.StatusBadRequest)
			return
		}
		query = query.Where("theses.year_published = ?", y)
	}
	if faculty := params.Get("faculty"); faculty != "" {
		query = query.Where("theses.faculty = ?", faculty)
	}
	if major := params.Get("major"); major != "" {
		query = query.Where("theses.major = ?", major)
	}
	if author := params.Get("author"); author != "" {
		query = query.Where("users.email = ?", author)
	}

	var theses []schema.Thesis
	result := query.Find(&theses)
	if result.Error != nil {
		slog.Error("sql error searching published theses", "error", result.Error)
		http.Error(w, schema.ErrDbAccessFailed.Error(), http.StatusInternalServerError)
		return
	}

	infos := make([]ThesisInfo, 0, len(theses))
	for _, thesis := range theses {
		infos = append(infos, newThesisInfo(thesis))
	}

	utils.WriteJsonResponse(w, infos)
}
