package batch

import (
	"os"
	"path/filepath"
	"testing"

	"receipt-batch-service/internal/models"
	"receipt-batch-service/pkg/errors"
)

func writeTestFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	return path
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "b_receipt.jpg", []byte("jpeg bytes"))
	writeTestFile(t, dir, "a_receipt.png", []byte("png bytes"))
	writeTestFile(t, dir, "invoice.pdf", []byte("pdf bytes"))
	writeTestFile(t, dir, "notes.txt", []byte("ignored"))

	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0755); err != nil {
		t.Fatalf("Failed to create subdirectory: %v", err)
	}

	files, err := LoadDirectory(dir)
	if err != nil {
		t.Fatalf("LoadDirectory failed: %v", err)
	}

	if len(files) != 3 {
		t.Fatalf("Expected 3 supported files, got %d", len(files))
	}

	// Sorted by name for deterministic batch order
	if files[0].Name != "a_receipt.png" || files[1].Name != "b_receipt.jpg" || files[2].Name != "invoice.pdf" {
		t.Errorf("Unexpected order: %s, %s, %s", files[0].Name, files[1].Name, files[2].Name)
	}

	if files[0].MIMEType != "image/png" {
		t.Errorf("Expected image/png, got %s", files[0].MIMEType)
	}
	if files[2].MIMEType != "application/pdf" {
		t.Errorf("Expected application/pdf, got %s", files[2].MIMEType)
	}

	if files[0].Size != int64(len("png bytes")) {
		t.Errorf("Expected size %d, got %d", len("png bytes"), files[0].Size)
	}
}

func TestLoadDirectoryMissing(t *testing.T) {
	_, err := LoadDirectory(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Fatal("Expected error for missing directory")
	}

	batchErr, ok := errors.AsBatchError(err)
	if !ok || batchErr.Code != errors.CodeFileNotFound {
		t.Errorf("Expected file_not_found error, got %v", err)
	}
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	first := writeTestFile(t, dir, "first.jpg", []byte("one"))
	second := writeTestFile(t, dir, "second.webp", []byte("two"))

	files, err := LoadFiles([]string{second, first})
	if err != nil {
		t.Fatalf("LoadFiles failed: %v", err)
	}

	// Given order is preserved
	if files[0].Name != "second.webp" || files[1].Name != "first.jpg" {
		t.Errorf("Expected given order, got %s, %s", files[0].Name, files[1].Name)
	}
	if files[0].MIMEType != "image/webp" {
		t.Errorf("Expected image/webp, got %s", files[0].MIMEType)
	}
}

func TestLoadFilesUnsupportedType(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "data.csv", []byte("a,b"))

	_, err := LoadFiles([]string{path})
	batchErr, ok := errors.AsBatchError(err)
	if !ok || batchErr.Code != errors.CodeUnsupportedType {
		t.Errorf("Expected unsupported_type error, got %v", err)
	}
}

func TestLoadFilesMissing(t *testing.T) {
	_, err := LoadFiles([]string{filepath.Join(t.TempDir(), "ghost.jpg")})
	batchErr, ok := errors.AsBatchError(err)
	if !ok || batchErr.Code != errors.CodeFileNotFound {
		t.Errorf("Expected file_not_found error, got %v", err)
	}
}

func TestCrossValidateWarnings(t *testing.T) {
	extractor := &stubExtractor{records: map[string]*models.TransactionRecord{}}
	coordinator := newTestCoordinator(t, extractor)

	missing := &models.TransactionRecord{FileName: "blank.jpg", Confidence: 0.3}
	a := stubRecord(100, "2024-01-01", "Cafe X")
	a.FileName = "a.jpg"
	b := stubRecord(120, "2024-01-01", "Cafe X")
	b.FileName = "b.jpg"

	warnings := coordinator.crossValidate([]*models.TransactionRecord{missing, a, b})

	types := map[WarningType]int{}
	for _, w := range warnings {
		types[w.Type]++
	}

	if types[WarningMissingAmount] != 1 {
		t.Errorf("Expected 1 missing amount warning, got %d", types[WarningMissingAmount])
	}
	if types[WarningMissingDate] != 1 {
		t.Errorf("Expected 1 missing date warning, got %d", types[WarningMissingDate])
	}
	if types[WarningLowConfidence] != 1 {
		t.Errorf("Expected 1 low confidence warning, got %d", types[WarningLowConfidence])
	}
	if types[WarningConflictingData] != 1 {
		t.Errorf("Expected 1 conflicting data warning, got %d", types[WarningConflictingData])
	}
}
