package services

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"thesis_repo/repository/schema"
	"thesis_repo/repository/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrStaleThesisStatus = errors.New("thesis status changed since it was read, please retry with the current status")

type codedError struct {
	err  error
	code int
}

func (e *codedError) Error() string {
	return e.err.Error()
}

func (e *codedError) Unwrap() error {
	return e.err
}

func CodedError(err error, code int) error {
	return &codedError{err: err, code: code}
}

func GetResponseCode(err error) int {
	var cerr *codedError
	if errors.As(err, &cerr) {
		return cerr.code
	}
	slog.Error("non coded error passed to GetResponseCode", "error", err)
	return http.StatusInternalServerError
}

func getThesisForUpdate(thesisId uuid.UUID, txn *gorm.DB) (schema.Thesis, error) {
	thesis, err := schema.GetThesis(thesisId, txn, false)
	if err != nil {
		if errors.Is(err, schema.ErrThesisNotFound) {
			return schema.Thesis{}, CodedError(err, http.StatusNotFound)
		}
		return schema.Thesis{}, CodedError(err, http.StatusInternalServerError)
	}
	return thesis, nil
}

func checkThesisExists(thesisId uuid.UUID, db *gorm.DB) error {
	_, err := getThesisForUpdate(thesisId, db)
	return err
}

// serveThesisDocument streams the stored document for a thesis. Access checks
// are the caller's responsibility.
func serveThesisDocument(w http.ResponseWriter, docStore storage.Storage, thesis schema.Thesis) {
	exists, err := docStore.Exists(thesis.FilePath)
	if err != nil {
		slog.Error("error checking stored document", "thesis_id", thesis.Id, "error", err)
		http.Error(w, fmt.Sprintf("error accessing document for thesis %v: %v", thesis.Id, err), http.StatusInternalServerError)
		return
	}
	if !exists {
		http.Error(w, fmt.Sprintf("document for thesis %v is missing from storage", thesis.Id), http.StatusNotFound)
		return
	}

	file, err := docStore.Read(thesis.FilePath)
	if err != nil {
		slog.Error("error opening stored document", "thesis_id", thesis.Id, "error", err)
		http.Error(w, fmt.Sprintf("error reading document for thesis %v: %v", thesis.Id, err), http.StatusInternalServerError)
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(thesis.FilePath)))
	if _, err := io.Copy(w, file); err != nil {
		slog.Error("error streaming stored document", "thesis_id", thesis.Id, "error", err)
	}
}

func checkDiskUsage(docStore storage.Storage) error {
	stats, err := docStore.Usage()
	if err != nil {
		return CodedError(fmt.Errorf("unable to verify disk usage: %w", err), http.StatusInternalServerError)
	}

	oneMib := uint64(1024 * 1024)
	// Either 20% of the disk needs to be free or 20Gb, whichever is smaller.
	threshold := min(stats.TotalBytes/5, 20*1024*oneMib)
	if stats.FreeBytes < threshold {
		used := (stats.TotalBytes - stats.FreeBytes) / oneMib
		total := stats.TotalBytes / oneMib
		delta := (threshold - stats.FreeBytes) / oneMib
		return CodedError(fmt.Errorf("insufficient disk space available, usage: %d/%d Mib, please clear %d Mib", used, total, delta), http.StatusInsufficientStorage)
	}
	return nil
}

func checkSufficientStorage(docStore storage.Storage) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		handler := func(w http.ResponseWriter, r *http.Request) {
			if err := checkDiskUsage(docStore); err != nil {
				slog.Error(err.Error())
				http.Error(w, err.Error(), GetResponseCode(err))
				return
			}
			next.ServeHTTP(w, r)
		}

		return http.HandlerFunc(handler)
	}
}
