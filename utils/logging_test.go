package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/goblinstake/goblin-stake/types"
)

func TestInitLoggerFileOutput(t *testing.T) {
	cfg := &types.Config{}
	cfg.Logging.OutputLevel = "error"
	cfg.Logging.OutputStderr = true
	cfg.Logging.FilePath = filepath.Join(t.TempDir(), "client.log")
	cfg.Logging.FileLevel = "debug"

	logWriter, logger, err := InitLogger(cfg)
	if err != nil {
		t.Fatalf("InitLogger() error = %v", err)
	}

	if logger.GetLevel() != logrus.DebugLevel {
		t.Errorf("logger level = %v, want debug", logger.GetLevel())
	}

	logger.WithField("module", "test").Debugf("written to file only")
	logWriter.Dispose()

	data, err := os.ReadFile(cfg.Logging.FilePath)
	if err != nil {
		t.Fatal(err)
	}
	line := map[string]interface{}{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &line); err != nil {
		t.Fatalf("log file is not json: %v (%s)", err, data)
	}
	if line["msg"] != "written to file only" || line["module"] != "test" {
		t.Errorf("log line = %v", line)
	}
}

func TestInitLoggerLevels(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		file     string
		expected logrus.Level
		wantErr  bool
	}{
		{"default", "", "", logrus.InfoLevel, false},
		{"debug", "debug", "", logrus.DebugLevel, false},
		{"invalid output", "loud", "", 0, true},
		{"invalid file level", "info", "loud", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &types.Config{}
			cfg.Logging.OutputLevel = tt.output
			if tt.file != "" {
				cfg.Logging.FilePath = filepath.Join(t.TempDir(), "client.log")
				cfg.Logging.FileLevel = tt.file
			}

			logWriter, logger, err := InitLogger(cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("InitLogger() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer logWriter.Dispose()

			if logger.GetLevel() != tt.expected {
				t.Errorf("level = %v, want %v", logger.GetLevel(), tt.expected)
			}
		})
	}
}

func TestLogError(t *testing.T) {
	logger, hook := test.NewNullLogger()

	inner := errors.New("connection refused")
	LogError(logger, fmt.Errorf("getLatestBlockhash: %w", inner), "remote call failed", 0)

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatalf("nothing logged")
	}
	if entry.Level != logrus.ErrorLevel || entry.Message != "remote call failed" {
		t.Errorf("entry = %v %q", entry.Level, entry.Message)
	}
	if entry.Data["_file"] != "logging_test.go" {
		t.Errorf("_file = %v, want logging_test.go", entry.Data["_file"])
	}
	if entry.Data["errChain"] != "getLatestBlockhash" {
		t.Errorf("errChain = %v", entry.Data["errChain"])
	}
	if entry.Data["errType"] != "*errors.errorString" {
		t.Errorf("errType = %v", entry.Data["errType"])
	}
}

func TestUnwrapChain(t *testing.T) {
	root := errors.New("refused")
	tests := []struct {
		name  string
		err   error
		chain []string
	}{
		{name: "plain", err: root, chain: []string{}},
		{name: "nested", err: fmt.Errorf("rpc: %w", fmt.Errorf("send: %w", root)), chain: []string{"rpc", "send"}},
		{name: "bare wrap", err: fmt.Errorf("%w", root), chain: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner, chain := unwrapChain(tt.err)
			if inner != root {
				t.Errorf("inner = %v, want %v", inner, root)
			}
			if strings.Join(chain, ",") != strings.Join(tt.chain, ",") {
				t.Errorf("chain = %v, want %v", chain, tt.chain)
			}
		})
	}
}
