package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"tumdlr/pkg/errors"
)

// Manager handles media file writes below a base directory
type Manager struct {
	basePath string
}

// NewManager creates a storage manager rooted at basePath. The base
// directory is created up front and probed for writability so an
// unusable save location fails the run before any network work starts.
func NewManager(basePath string) (*Manager, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, errors.New(errors.ErrorTypeFilesystem,
			fmt.Sprintf("failed to create save directory %s: %v", basePath, err))
	}

	probe, err := os.CreateTemp(basePath, ".tumdlr-probe-*")
	if err != nil {
		return nil, errors.New(errors.ErrorTypeFilesystem,
			fmt.Sprintf("save directory %s is not writable: %v", basePath, err))
	}
	probe.Close()
	os.Remove(probe.Name())

	return &Manager{basePath: basePath}, nil
}

// BasePath returns the root directory files are saved under
func (m *Manager) BasePath() string {
	return m.basePath
}

// SaveStream writes r to path via a temporary sibling file and an
// atomic rename, so a final path never holds a partial download.
// Parent directories are created on demand. When wantSize is positive
// the byte count is checked against it and a mismatch fails the save.
func (m *Manager) SaveStream(r io.Reader, path string, wantSize int64) (int64, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, errors.New(errors.ErrorTypeFilesystem,
			fmt.Sprintf("failed to create directory %s: %v", dir, err))
	}

	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return 0, errors.New(errors.ErrorTypeFilesystem,
			fmt.Sprintf("failed to create temporary file %s: %v", tempPath, err))
	}

	written, err := io.Copy(file, r)
	if err != nil {
		file.Close()
		os.Remove(tempPath)
		return written, errors.New(errors.ErrorTypeNetwork,
			fmt.Sprintf("download interrupted after %d bytes: %v", written, err))
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return written, errors.New(errors.ErrorTypeFilesystem,
			fmt.Sprintf("failed to sync %s: %v", tempPath, err))
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return written, errors.New(errors.ErrorTypeFilesystem,
			fmt.Sprintf("failed to close %s: %v", tempPath, err))
	}

	if wantSize > 0 && written != wantSize {
		os.Remove(tempPath)
		return written, errors.New(errors.ErrorTypeNetwork,
			fmt.Sprintf("size mismatch: got %d bytes, expected %d", written, wantSize))
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return written, errors.New(errors.ErrorTypeFilesystem,
			fmt.Sprintf("failed to move %s into place: %v", tempPath, err))
	}

	return written, nil
}

// FileExists reports whether a regular file exists at path
func (m *Manager) FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
