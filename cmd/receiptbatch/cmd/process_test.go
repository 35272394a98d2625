package cmd

import (
	"testing"

	"github.com/spf13/viper"
)

func resetProcessFlags(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestValidateProcessFlagsRequiresInput(t *testing.T) {
	resetProcessFlags(t)

	if err := validateProcessFlags(processCmd, nil); err == nil {
		t.Error("Expected error when neither --input-dir nor --files is set")
	}
}

func TestValidateProcessFlagsRejectsBothInputs(t *testing.T) {
	resetProcessFlags(t)

	viper.Set("input-dir", "./receipts")
	viper.Set("files", []string{"a.jpg"})

	if err := validateProcessFlags(processCmd, nil); err == nil {
		t.Error("Expected error when both --input-dir and --files are set")
	}
}

func TestValidateProcessFlagsAcceptsDirectory(t *testing.T) {
	resetProcessFlags(t)

	viper.Set("input-dir", "./receipts")
	viper.Set("mode", "parallel")
	viper.Set("window-size", 5)

	if err := validateProcessFlags(processCmd, nil); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}

	if inputDir != "./receipts" {
		t.Errorf("Expected input dir to be bound from viper, got %q", inputDir)
	}
	if windowSize != 5 {
		t.Errorf("Expected window size 5, got %d", windowSize)
	}
}

func TestValidateProcessFlagsAcceptsFileList(t *testing.T) {
	resetProcessFlags(t)

	viper.Set("files", []string{"a.jpg", "b.png"})

	if err := validateProcessFlags(processCmd, nil); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}

	if len(inputFiles) != 2 {
		t.Errorf("Expected 2 input files, got %d", len(inputFiles))
	}
}
