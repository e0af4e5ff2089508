package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jedib0t/go-pretty/v6/text"
)

func TestRenderTablePlainWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	renderTable(&buf, []column{
		{title: "Serial"},
		{title: "Images", right: true},
		{title: "Status", status: true},
	}, [][]string{{"18407214", "12", "failed"}, {"18407121"}})

	out := buf.String()
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no color codes, got %q", out)
	}
	for _, fragment := range []string{"Serial", "18407214", "failed", "18407121"} {
		requireContains(t, out, fragment)
	}
}

func TestStatusColors(t *testing.T) {
	text.EnableColors()
	tests := []struct {
		status  string
		colored bool
	}{
		{"ok", true},
		{"completed", true},
		{"in use", true},
		{"FAIL", true},
		{"open: permission denied", false},
	}
	for _, tt := range tests {
		got := colorStatus(tt.status)
		if colored := got != tt.status; colored != tt.colored {
			t.Fatalf("colorStatus(%q) = %q, colored %v, want %v", tt.status, got, colored, tt.colored)
		}
		if !strings.Contains(got, tt.status) {
			t.Fatalf("colorStatus(%q) lost the value: %q", tt.status, got)
		}
	}
}
