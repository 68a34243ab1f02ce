package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"thesis_repo/repository/schema"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUserNotFoundWithEmail = errors.New("no user found for given email")
	ErrInvalidCredentials    = errors.New("invalid login credentials")
	ErrGeneratingJwt         = errors.New("error generating jwt")
	ErrEmailAlreadyInUse     = errors.New("email is already in use")
)

type LoginResult struct {
	UserId      uuid.UUID
	AccessToken string
}

// IdentityProvider is the boundary to the authentication collaborator. The
// services trust the user it places in the request context and never
// re-authenticate.
type IdentityProvider interface {
	AuthMiddleware() chi.Middlewares

	AllowDirectSignup() bool

	LoginWithEmail(email, password string) (LoginResult, error)

	CreateUser(email, password, role string) (uuid.UUID, error)
}

func addInitialAdminToDb(db *gorm.DB, userId uuid.UUID, email string, password []byte) error {
	admin := schema.User{
		Id:       userId,
		Email:    email,
		Password: password,
		Role:     schema.RoleAdmin,
	}

	err := db.Transaction(func(txn *gorm.DB) error {
		var existing schema.User
		result := txn.Limit(1).Find(&existing, "id = ? or email = ?", userId, email)
		if result.Error != nil {
			slog.Error("sql error checking if admin has already been added", "error", result.Error)
			return schema.ErrDbAccessFailed
		}
		if result.RowsAffected == 0 {
			result := txn.Create(&admin)
			if result.Error != nil {
				slog.Error("sql error creating initial admin user", "error", result.Error)
				return schema.ErrDbAccessFailed
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error adding initial admin to db: %w", err)
	}

	return nil
}

type requestContextKey string

const userRequestContextKey requestContextKey = "user"
