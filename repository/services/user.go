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

type UserService struct {
	db       *gorm.DB
	userAuth auth.IdentityProvider
}

func (s *UserService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		if s.userAuth.AllowDirectSignup() {
			r.Post("/signup", s.Signup)
		}

		r.Get("/login", s.LoginWithEmail)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)

		r.Get("/info", s.Info)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)
		r.Use(auth.AdminOnly())

		r.Get("/list", s.List)
		r.Post("/create", s.CreateUser)
	})

	return r
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type SignupResponse struct {
	UserId uuid.UUID `json:"user_id"`
}

// Signup registers a new student or lecturer account. Admin accounts are
// created only through the admin create endpoint or the startup bootstrap.
func (s *UserService) Signup(w http.ResponseWriter, r *http.Request) {
	var params signupRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.Role != schema.RoleStudent && params.Role != schema.RoleLecturer {
		http.Error(w, fmt.Sprintf("cannot signup directly with role '%v'", params.Role), http.StatusUnprocessableEntity)
		return
	}

	userId, err := s.userAuth.CreateUser(params.Email, params.Password, params.Role)
	if err != nil {
		responseCode := http.StatusInternalServerError
		if errors.Is(err, auth.ErrEmailAlreadyInUse) {
			responseCode = http.StatusConflict
		}
		http.Error(w, err.Error(), responseCode)
		return
	}

	utils.WriteJsonResponse(w, SignupResponse{UserId: userId})
}

type LoginResponse struct {
	UserId      uuid.UUID `json:"user_id"`
	AccessToken string    `json:"access_token"`
}

func (s *UserService) LoginWithEmail(w http.ResponseWriter, r *http.Request) {
	email, password, ok := r.BasicAuth()
	if !ok {
		http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
		return
	}

	login, err := s.userAuth.LoginWithEmail(email, password)
	if err != nil {
		responseCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, auth.ErrUserNotFoundWithEmail):
			responseCode = http.StatusNotFound
		case errors.Is(err, auth.ErrInvalidCredentials):
			responseCode = http.StatusUnauthorized
		}
		http.Error(w, fmt.Sprintf("login failed: %v", err), responseCode)
		return
	}

	utils.WriteJsonResponse(w, LoginResponse{UserId: login.UserId, AccessToken: login.AccessToken})
}

type UserInfo struct {
	Id    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

func (s *UserService) Info(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, UserInfo{Id: user.Id, Email: user.Email, Role: user.Role})
}

// List returns all accounts, optionally narrowed by role or exact email so
// an admin can look up a specific account.
func (s *UserService) List(w http.ResponseWriter, r *http.Request) {
	query := s.db.Order("email")

	params := r.URL.Query()
	if role := params.Get("role"); role != "" {
		if err := schema.CheckValidRole(role); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		query = query.Where("role = ?", role)
	}
	if email := params.Get("email"); email != "" {
		query = query.Where("email = ?", email)
	}

	var users []schema.User
	result := query.Find(&users)
	if result.Error != nil {
		slog.Error("sql error listing users", "error", result.Error)
		http.Error(w, schema.ErrDbAccessFailed.Error(), http.StatusInternalServerError)
		return
	}

	infos := make([]UserInfo, 0, len(users))
	for _, user := range users {
		infos = append(infos, UserInfo{Id: user.Id, Email: user.Email, Role: user.Role})
	}

	utils.WriteJsonResponse(w, infos)
}

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// CreateUser lets an admin provision accounts with any role.
func (s *UserService) CreateUser(w http.ResponseWriter, r *http.Request) {
	var params createUserRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if err := schema.CheckValidRole(params.Role); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	userId, err := s.userAuth.CreateUser(params.Email, params.Password, params.Role)
	if err != nil {
		responseCode := http.StatusInternalServerError
		if errors.Is(err, auth.ErrEmailAlreadyInUse) {
			responseCode = http.StatusConflict
		}
		http.Error(w, err.Error(), responseCode)
		return
	}

	utils.WriteJsonResponse(w, SignupResponse{UserId: userId})
}
