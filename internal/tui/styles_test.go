package tui

import (
	"strings"
	"testing"
)

func TestHasAnyPrefix(t *testing.T) {
	tests := []struct {
		line     string
		prefixes []string
		want     bool
	}{
		{"[start] echo hi", []string{"[start]"}, true},
		{"[retry 1/3 in 1000ms]", []string{"[retry "}, true},
		{"plain output", []string{"[start]", "[done]"}, false},
		{"", []string{"[start]"}, false},
	}

	for _, tt := range tests {
		if got := hasAnyPrefix(tt.line, tt.prefixes...); got != tt.want {
			t.Errorf("hasAnyPrefix(%q, %v) = %v, want %v", tt.line, tt.prefixes, got, tt.want)
		}
	}
}

func TestHighlightLine_KeepsContent(t *testing.T) {
	// Styling may be stripped outside a terminal, but the text must survive.
	lines := []string{
		"[start] sleep 1",
		"[stderr] oops",
		"[panic: retries exhausted]",
		"[done]",
		"ordinary output",
	}
	for _, line := range lines {
		if got := highlightLine(line); !strings.Contains(got, line) {
			t.Errorf("highlightLine(%q) lost content: %q", line, got)
		}
	}
}

func TestRenderStatRow(t *testing.T) {
	row := RenderStatRow("errors", 42)
	if !strings.Contains(row, "errors") {
		t.Errorf("row missing label: %q", row)
	}
	if !strings.Contains(row, "42") {
		t.Errorf("row missing count: %q", row)
	}
}
