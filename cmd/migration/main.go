package main

import (
	"fmt"
	"log"
	"net/url"
	"strings"
	"thesis_repo/cmd/migration/versions"
	"thesis_repo/repository/schema"

	"github.com/caarlos0/env/v10"
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type migrationEnv struct {
	DatabaseUri string `env:"DATABASE_URI,required"`
}

func postgresDsn(uri string) string {
	parts, err := url.Parse(uri)
	if err != nil {
		log.Fatalf("error parsing db uri: %v", err)
	}
	pwd, _ := parts.User.Password()
	dbname := strings.TrimPrefix(parts.Path, "/")
	return fmt.Sprintf("host=%v user=%v password=%v dbname=%v port=%v", parts.Hostname(), parts.User.Username(), pwd, dbname, parts.Port())
}

func main() {
	var cfg migrationEnv
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing migration env: %v", err)
	}

	db, err := gorm.Open(postgres.Open(postgresDsn(cfg.DatabaseUri)), &gorm.Config{})
	if err != nil {
		log.Fatalf("error opening database connection: %v", err)
	}

	migration := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			// Placeholder representing the schema state before migrations were
			// tracked.
			ID:      "0",
			Migrate: func(*gorm.DB) error { return nil },
		},
		{
			ID:      "1",
			Migrate: versions.Migration_1_legacy_supervisor_states,
			// No rollback, the legacy statuses are not recoverable once
			// collapsed into the library stage.
		},
	})

	migration.InitSchema(func(txn *gorm.DB) error {
		log.Println("clean database detected, running full schema initialization")

		return txn.AutoMigrate(
			&schema.User{}, &schema.SupervisorAssignment{}, &schema.ChecklistItem{},
			&schema.Thesis{}, &schema.ThesisChecklist{}, &schema.Approval{},
		)
	})

	if err := migration.Migrate(); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	log.Println("migration completed successfully")
}
