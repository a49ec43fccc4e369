package tui

import (
	"strings"
	"testing"

	"github.com/nsharda/inklet/internal/backend"
)

func newTestModel(t *testing.T) *model {
	t.Helper()
	teaModel, ok := New(Config{}).(*model)
	if !ok {
		t.Fatalf("expected *model, got %T", teaModel)
	}
	return teaModel
}

func TestAudioOutlineFormat(t *testing.T) {
	outline := audioOutline("  attention is all you need  ", []backend.Insight{
		{Type: backend.InsightKeyTakeaway, Text: "Transformers drop recurrence."},
		{Type: backend.InsightConnection, Text: "Attention weighs token pairs."},
	})

	lines := strings.Split(outline, "\n")
	if len(lines) != 4 {
		t.Fatalf("outline has %d lines: %q", len(lines), outline)
	}
	if lines[0] != "Overview based on selected text and related insights." {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "Selected: attention is all you need" {
		t.Errorf("selected line = %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "- "+backend.InsightKeyTakeaway+": ") {
		t.Errorf("insight line = %q", lines[2])
	}
}

func TestAudioOutlineWithoutInsights(t *testing.T) {
	outline := audioOutline("just the passage", nil)
	if strings.Contains(outline, "\n- ") {
		t.Errorf("outline should have no insight bullets: %q", outline)
	}
}

func TestTrimmedTitleShortensLongValues(t *testing.T) {
	long := strings.Repeat("section ", 20)
	got := trimmedTitle(long)
	if len(got) > 64 {
		t.Errorf("trimmed title still %d chars: %q", len(got), got)
	}
	if got := trimmedTitle("Short"); got != "Short" {
		t.Errorf("short title altered: %q", got)
	}
}
