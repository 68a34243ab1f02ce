package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

const fileLocatorPrefix = "file://"

type SharedDiskStorage struct {
	basepath string
}

func NewSharedDisk(basepath string) Storage {
	slog.Info("creating new shared disk storage", "basepath", basepath)
	return &SharedDiskStorage{basepath: basepath}
}

func (s *SharedDiskStorage) fullpath(locator string) (string, error) {
	path, ok := strings.CutPrefix(locator, fileLocatorPrefix)
	if !ok {
		return "", fmt.Errorf("locator %v does not refer to shared disk storage", locator)
	}
	return filepath.Join(s.basepath, path), nil
}

func (s *SharedDiskStorage) Store(path string, data io.Reader) (string, error) {
	fullpath := filepath.Join(s.basepath, path)

	err := os.MkdirAll(filepath.Dir(fullpath), 0777)
	if err != nil {
		slog.Error("error creating parent directory", "path", fullpath, "error", err)
		return "", fmt.Errorf("error creating parent directory %v: %v", path, err)
	}

	file, err := os.OpenFile(fullpath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		slog.Error("error opening file for writing", "path", fullpath, "error", err)
		return "", fmt.Errorf("error opening file %v: %v", path, err)
	}
	defer file.Close()

	_, err = io.Copy(file, data)
	if err != nil {
		slog.Error("error writing to file", "path", fullpath, "error", err)
		return "", fmt.Errorf("error writing to file %v: %v", path, err)
	}

	return fileLocatorPrefix + path, nil
}

func (s *SharedDiskStorage) Read(locator string) (io.ReadCloser, error) {
	fullpath, err := s.fullpath(locator)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullpath)
	if err != nil {
		slog.Error("error opening file for read", "path", fullpath, "error", err)
		return nil, fmt.Errorf("error reading file %v: %v", locator, err)
	}

	return file, nil
}

func (s *SharedDiskStorage) Exists(locator string) (bool, error) {
	fullpath, err := s.fullpath(locator)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(fullpath)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	slog.Error("error checking if file exists", "path", fullpath, "error", err)
	return false, fmt.Errorf("error checking if file %v exists: %w", locator, err)
}

func (s *SharedDiskStorage) Usage() (UsageStats, error) {
	var stat unix.Statfs_t

	err := unix.Statfs(s.basepath, &stat)
	if err != nil {
		slog.Error("error getting disk usage for shared storage", "path", s.basepath, "error", err)
		return UsageStats{}, fmt.Errorf("error getting disk usage stats: %w", err)
	}

	return UsageStats{
		TotalBytes: stat.Blocks * uint64(stat.Bsize),
		FreeBytes:  stat.Bfree * uint64(stat.Bsize),
	}, nil
}

func (s *SharedDiskStorage) Location() string {
	return s.basepath
}
