package services

import (
	"strings"
	"testing"

	"github.com/parastudy/parastudy-backend/internal/relevance"
	"github.com/parastudy/parastudy-backend/internal/types"
)

func TestToRelevanceSources(t *testing.T) {
	sources := []*types.CourseSource{
		{Name: "Cardio", Category: "cardiologie", Content: "le coeur"},
		{Name: "Scan", AttachmentKey: "users/x/scan.pdf", AttachmentMIME: "application/pdf"},
	}
	got := toRelevanceSources(sources)
	if len(got) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(got))
	}
	if got[0].HasAttachment {
		t.Fatalf("text-only source flagged as attachment")
	}
	if !got[1].HasAttachment {
		t.Fatalf("attachment source not flagged")
	}
	if got[0].Category != "cardiologie" {
		t.Fatalf("category not carried over: %q", got[0].Category)
	}
}

func TestTruncateForPrompt(t *testing.T) {
	short := "petit texte"
	if got := truncateForPrompt(short, 100); got != short {
		t.Fatalf("short text was modified: %q", got)
	}

	long := strings.Repeat("é", 500)
	got := truncateForPrompt(long, 100)
	if !strings.HasSuffix(got, "[... document tronqué ...]") {
		t.Fatalf("missing truncation marker: %q", got[len(got)-40:])
	}
	if n := len([]rune(strings.TrimSuffix(got, "\n[... document tronqué ...]"))); n != 100 {
		t.Fatalf("expected 100 runes kept, got %d", n)
	}
}

func TestBuildSourceContext(t *testing.T) {
	if got := buildSourceContext(nil); got != "" {
		t.Fatalf("expected empty context for no sources, got %q", got)
	}

	selected := []relevance.Source{
		{Name: "Pharmaco", Category: "pharmacologie", Content: "les doses"},
		{Name: "Scan", HasAttachment: true},
	}
	got := buildSourceContext(selected)
	if !strings.Contains(got, "Document 1 : Pharmaco (pharmacologie)") {
		t.Fatalf("missing first document header:\n%s", got)
	}
	if !strings.Contains(got, "les doses") {
		t.Fatalf("missing document content:\n%s", got)
	}
	if !strings.Contains(got, "[document joint en pièce jointe]") {
		t.Fatalf("attachment-only source should be listed by name:\n%s", got)
	}
}

func TestQuizPromptDefaults(t *testing.T) {
	got := quizPrompt("l'arrêt cardiaque", 0)
	if !strings.Contains(got, "10 questions") {
		t.Fatalf("expected default of 10 questions:\n%s", got)
	}
	if !strings.Contains(got, "correctIndices") {
		t.Fatalf("prompt does not describe the answer key format")
	}
}
