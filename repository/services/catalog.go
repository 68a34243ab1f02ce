package services

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"thesis_repo/repository/schema"
	"thesis_repo/utils"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// findOrCreateChecklistItem resolves a catalog item by key, creating it on
// first reference. The label defaults to the key and the category to empty
// when the caller supplies only a bare key. Must run inside the caller's
// transaction so a concurrent first use of the same key cannot create
// duplicates.
func findOrCreateChecklistItem(txn *gorm.DB, key, label, category string) (schema.ChecklistItem, error) {
	item, err := schema.GetChecklistItemByKey(key, txn)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, schema.ErrChecklistItemNotFound) {
		return schema.ChecklistItem{}, CodedError(err, http.StatusInternalServerError)
	}

	if strings.TrimSpace(label) == "" {
		label = key
	}

	item = schema.ChecklistItem{
		Id:       uuid.New(),
		Key:      key,
		Label:    label,
		Category: category,
	}
	result := txn.Create(&item)
	if result.Error != nil {
		slog.Error("sql error creating checklist item", "key", key, "error", result.Error)
		return schema.ChecklistItem{}, CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
	}

	slog.Info("checklist item created on first reference", "key", key)
	return item, nil
}

type catalogSeedEntry struct {
	Key      string `yaml:"key"`
	Label    string `yaml:"label"`
	Category string `yaml:"category"`
}

type catalogSeed struct {
	Items []catalogSeedEntry `yaml:"items"`
}

// LoadCatalogSeed pre-registers common review criteria from a yaml file so
// reviewers start with a shared vocabulary. Existing keys are left untouched,
// so reloading the same file is a no-op.
func LoadCatalogSeed(db *gorm.DB, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading checklist catalog %v: %w", path, err)
	}

	var seed catalogSeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("error parsing checklist catalog %v: %w", path, err)
	}

	err = db.Transaction(func(txn *gorm.DB) error {
		for _, entry := range seed.Items {
			key := strings.TrimSpace(entry.Key)
			if key == "" {
				continue
			}
			if _, err := findOrCreateChecklistItem(txn, key, entry.Label, entry.Category); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error seeding checklist catalog: %w", err)
	}

	slog.Info("checklist catalog loaded", "path", path, "items", len(seed.Items))
	return nil
}

type CatalogItemInfo struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Category string `json:"category"`
}

func (s *ReviewService) ListCatalog(w http.ResponseWriter, r *http.Request) {
	var items []schema.ChecklistItem
	result := s.db.Order("key").Find(&items)
	if result.Error != nil {
		slog.Error("sql error listing checklist catalog", "error", result.Error)
		http.Error(w, schema.ErrDbAccessFailed.Error(), http.StatusInternalServerError)
		return
	}

	infos := make([]CatalogItemInfo, 0, len(items))
	for _, item := range items {
		infos = append(infos, CatalogItemInfo{Key: item.Key, Label: item.Label, Category: item.Category})
	}

	utils.WriteJsonResponse(w, infos)
}
