package tests

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"thesis_repo/repository/auth"
	"thesis_repo/repository/schema"
	"thesis_repo/repository/services"
	"thesis_repo/repository/storage"

	"github.com/go-chi/chi/v5"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	thesisRepo services.ThesisRepo
	api        chi.Router
	docStore   storage.Storage
	db         *gorm.DB
}

const (
	adminEmail    = "admin123@mail.com"
	adminPassword = "admin_password123"
)

func setupTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}

	err = db.AutoMigrate(
		&schema.User{}, &schema.SupervisorAssignment{}, &schema.ChecklistItem{},
		&schema.Thesis{}, &schema.ThesisChecklist{}, &schema.Approval{},
	)
	if err != nil {
		t.Fatal(err)
	}

	storagePath := filepath.Join(t.TempDir(), "storage")
	err = os.MkdirAll(storagePath, 0777)
	if err != nil {
		t.Fatalf("error creating storage directory: %v", err)
	}

	store := storage.NewSharedDisk(storagePath)

	userAuth, err := auth.NewBasicIdentityProvider(
		db,
		auth.NewAuditLogger(new(bytes.Buffer)),
		auth.BasicProviderArgs{
			Secret:        []byte("290zcv02ai249"),
			AdminEmail:    adminEmail,
			AdminPassword: adminPassword,
		},
	)
	if err != nil {
		t.Fatal(err)
	}

	thesisRepo := services.NewThesisRepo(db, store, userAuth)

	return &testEnv{thesisRepo: thesisRepo, api: thesisRepo.Routes(), docStore: store, db: db}
}

func (t *testEnv) newClient() client {
	return client{api: t.api}
}

func (t *testEnv) newUser(name, role string) (client, error) {
	c := t.newClient()
	login, err := c.signup(name+"@mail.com", name+"_password", role)
	if err != nil {
		return client{}, err
	}

	err = c.login(login)
	if err != nil {
		return client{}, err
	}

	return c, nil
}

func (t *testEnv) newStudent(name string) (client, error) {
	return t.newUser(name, schema.RoleStudent)
}

func (t *testEnv) newLecturer(name string) (client, error) {
	return t.newUser(name, schema.RoleLecturer)
}

func (t *testEnv) adminClient() (client, error) {
	c := t.newClient()
	err := c.login(loginInfo{Email: adminEmail, Password: adminPassword})
	return c, err
}

func (t *testEnv) thesisStatus(id string) (string, error) {
	var thesis schema.Thesis
	result := t.db.First(&thesis, "id = ?", id)
	if result.Error != nil {
		return "", fmt.Errorf("error reading thesis %v: %w", id, result.Error)
	}
	return thesis.CurrentStatus, nil
}
