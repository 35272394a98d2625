package batch

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"receipt-batch-service/internal/models"
	"receipt-batch-service/pkg/errors"
)

// mimeTypeByExtension maps supported file extensions to MIME types
var mimeTypeByExtension = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".pdf":  "application/pdf",
}

// LoadDirectory reads every supported document in a directory into batch
// files, sorted by name for deterministic batch order. Unsupported file
// types and subdirectories are skipped.
func LoadDirectory(path string) ([]*models.BatchFile, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return nil, errors.FileError(errors.CodeFilePermission, path, err)
		}
		return nil, errors.FileError(errors.CodeDirectoryError, path, err)
	}

	files := []*models.BatchFile{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		mimeType, ok := mimeTypeByExtension[strings.ToLower(filepath.Ext(entry.Name()))]
		if !ok {
			continue
		}

		fullPath := filepath.Join(path, entry.Name())
		data, err := os.ReadFile(fullPath)
		if err != nil {
			if os.IsPermission(err) {
				return nil, errors.FileError(errors.CodeFilePermission, fullPath, err)
			}
			return nil, errors.FileError(errors.CodeFileNotFound, fullPath, err)
		}

		files = append(files, &models.BatchFile{
			Name:     entry.Name(),
			MIMEType: mimeType,
			Size:     int64(len(data)),
			Data:     data,
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return files, nil
}

// LoadFiles reads the named documents into batch files, preserving the
// given order
func LoadFiles(paths []string) ([]*models.BatchFile, error) {
	files := make([]*models.BatchFile, 0, len(paths))

	for _, path := range paths {
		mimeType, ok := mimeTypeByExtension[strings.ToLower(filepath.Ext(path))]
		if !ok {
			return nil, errors.ValidationError(errors.CodeUnsupportedType, "file", path, nil)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.FileError(errors.CodeFileNotFound, path, err)
			}
			if os.IsPermission(err) {
				return nil, errors.FileError(errors.CodeFilePermission, path, err)
			}
			return nil, errors.FileError(errors.CodeDirectoryError, path, err)
		}

		files = append(files, &models.BatchFile{
			Name:     filepath.Base(path),
			MIMEType: mimeType,
			Size:     int64(len(data)),
			Data:     data,
		})
	}

	return files, nil
}
