package services

import (
	"log"
	"net/http"
	"os"
	"thesis_repo/repository/auth"
	"thesis_repo/repository/storage"
	"thesis_repo/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"
)

// ThesisRepo is the composition root for the repository services. All
// services share one gorm handle, the identity provider, and the document
// store.
type ThesisRepo struct {
	user       UserService
	thesis     ThesisService
	review     ReviewService
	supervisor SupervisorService
	public     PublicService

	db *gorm.DB
}

func NewThesisRepo(db *gorm.DB, docStore storage.Storage, userAuth auth.IdentityProvider) ThesisRepo {
	return ThesisRepo{
		user: UserService{db: db, userAuth: userAuth},
		thesis: ThesisService{
			db:       db,
			docStore: docStore,
			userAuth: userAuth,
		},
		review: ReviewService{
			db:       db,
			docStore: docStore,
			userAuth: userAuth,
		},
		supervisor: SupervisorService{
			db:       db,
			userAuth: userAuth,
		},
		public: PublicService{db: db},
		db:     db,
	}
}

func (t *ThesisRepo) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger: log.New(os.Stderr, "", log.LstdFlags), NoColor: false,
	}))

	r.Mount("/user", t.user.Routes())
	r.Mount("/thesis", t.thesis.Routes())
	r.Mount("/review", t.review.Routes())
	r.Mount("/supervisor", t.supervisor.Routes())
	r.Mount("/public", t.public.Routes())

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteSuccess(w)
	})

	return r
}
