// Package filesys provides the small set of file system operations the
// storage engine needs: directory bootstrap, existence checks, and whole
// file/segment listing.
package filesys

import (
	"errors"
	"os"
	"path/filepath"
)

var ErrIsNotDir = errors.New("path isn't a directory")

// CreateDir creates a directory at dirPath with the given permission.
//
// If the directory already exists:
//   - If force is true, it proceeds without error.
//   - If force is false, it returns an error.
//
// It also returns an error if the existing path is a file, not a directory.
func CreateDir(dirPath string, permission os.FileMode, force bool) error {
	stat, err := os.Stat(dirPath)
	if !force && err != nil && !os.IsNotExist(err) {
		return err
	}
	if stat != nil && !stat.IsDir() {
		return ErrIsNotDir
	}
	if !force && stat != nil {
		return &os.PathError{Op: "mkdir", Path: dirPath, Err: os.ErrExist}
	}
	return os.MkdirAll(dirPath, permission)
}

// ReadDir returns the paths matching the glob pattern dirName.
func ReadDir(dirName string) ([]string, error) {
	return filepath.Glob(dirName)
}

// ReadFile reads the entire content of the file at filePath.
func ReadFile(filePath string) ([]byte, error) {
	return os.ReadFile(filePath)
}

// WriteFile writes contents to filePath, creating it if necessary and
// truncating it if it already exists.
func WriteFile(filePath string, permission os.FileMode, contents []byte) error {
	return os.WriteFile(filePath, contents, permission)
}

// DeleteFile removes the file at filePath.
func DeleteFile(filePath string) error {
	return os.Remove(filePath)
}

// Exists reports whether a file or directory exists at the given path.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
