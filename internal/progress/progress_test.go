package progress_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"multicam/internal/logging"
	"multicam/internal/progress"
)

func TestNewUsesLogReporterForNonTerminal(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "progress.log")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	var out bytes.Buffer
	r := progress.New(&out, 3, logger)
	r.RoundCompleted(1, 2)
	r.Finish()

	if out.Len() != 0 {
		t.Fatalf("expected nothing on the writer, got %q", out.String())
	}
	data, _ := os.ReadFile(logPath)
	for _, fragment := range []string{`"msg":"round complete"`, `"total":3`, `"msg":"capture finished"`} {
		if !strings.Contains(string(data), fragment) {
			t.Fatalf("expected %s in %s", fragment, data)
		}
	}
}

func TestBarWritesToWriter(t *testing.T) {
	var out bytes.Buffer
	r := progress.NewBar(&out, 2)
	r.RoundCompleted(1, 3)
	r.RoundCompleted(2, 3)
	r.Finish()
	if out.Len() == 0 {
		t.Fatal("expected bar output")
	}
}

func TestIsTerminalRejectsBuffers(t *testing.T) {
	if progress.IsTerminal(&bytes.Buffer{}) {
		t.Fatal("buffer reported as terminal")
	}
}

func TestRecorder(t *testing.T) {
	var r progress.Recorder
	r.RoundCompleted(1, 2)
	r.Finish()
	if len(r.Events) != 1 || !r.Finished {
		t.Fatalf("unexpected recorder state: events=%v finished=%v", r.Events, r.Finished)
	}
}
