package logger

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew_Development(t *testing.T) {
	log, err := New(Config{}, true)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	if log == nil {
		t.Fatal("expected non-nil logger")
	}

	// Should not panic
	log.Info("test message")
}

func TestNew_Production(t *testing.T) {
	log, err := New(Config{Level: "warn"}, false)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	if log == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"}, false)
	if err == nil {
		t.Fatal("expected error on unknown level")
	}
}

func TestNew_FileSink(t *testing.T) {
	file := filepath.Join(t.TempDir(), "marlin.log")
	log, err := New(Config{File: file, MaxSizeMB: 1}, false)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	log.Info("written to file")
	log.Sync()

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected log output in file")
	}
}

func TestMust(t *testing.T) {
	// Should not panic
	log := Must(Config{}, true)
	if log == nil {
		t.Fatal("expected non-nil logger")
	}
}
