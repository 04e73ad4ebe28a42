package tlog

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

// Test initialization of the global logger (Tlogger)
func TestGlobalLoggerInitialization(t *testing.T) {
	t.Setenv(logLevelEnvVar, "debug")

	logPath := filepath.Join(t.TempDir(), "test.log")
	InitializeTlogger(logPath)
	Tlogger.Debug("Test message")

	if Tlogger == nil {
		t.Fatal("Tlogger is not initialized")
	}

	if Tlogger.GetLevel() != logrus.DebugLevel {
		t.Fatalf("Expected log level to be Debug, got %v", Tlogger.GetLevel())
	}

	// Test logging output to a buffer instead of file
	var buf bytes.Buffer
	Tlogger.Out = &buf

	Tlogger.Debug("Test message")

	if !bytes.Contains(buf.Bytes(), []byte("Test message")) {
		t.Errorf("Expected log message not found in buffer")
	}
}

func TestLogFileIsAppended(t *testing.T) {
	t.Setenv(logLevelEnvVar, "")

	logPath := filepath.Join(t.TempDir(), "append.log")
	InitializeTlogger(logPath)
	Tlogger.Info("first run")
	InitializeTlogger(logPath)
	Tlogger.Info("second run")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !bytes.Contains(data, []byte("first run")) || !bytes.Contains(data, []byte("second run")) {
		t.Fatalf("expected both runs in log, got:\n%s", data)
	}
}

func TestSetLevel(t *testing.T) {
	t.Setenv(logLevelEnvVar, "")

	logPath := filepath.Join(t.TempDir(), "test.log")
	InitializeTlogger(logPath)

	if err := SetLevel("error"); err != nil {
		t.Fatalf("SetLevel returned error: %v", err)
	}

	if Tlogger.GetLevel() != logrus.ErrorLevel {
		t.Fatalf("Expected log level to be Error, got %v", Tlogger.GetLevel())
	}

	if err := SetLevel("invalid"); err == nil {
		t.Fatalf("SetLevel should fail for invalid level")
	}

	if Tlogger.GetLevel() != logrus.ErrorLevel {
		t.Fatalf("Log level should remain Error after invalid SetLevel attempt, got %v", Tlogger.GetLevel())
	}
}
