package services

import (
	"testing"

	"github.com/parastudy/parastudy-backend/internal/types"
)

func TestQuizProgress(t *testing.T) {
	questions := []types.QuizQuestion{
		{ID: "a"}, {ID: "b"}, {ID: "c"},
	}
	cases := []struct {
		name    string
		answers map[string][]int
		want    int
	}{
		{name: "none answered", answers: map[string][]int{}, want: 0},
		{name: "one of three", answers: map[string][]int{"a": {1}}, want: 33},
		{name: "empty selection does not count", answers: map[string][]int{"a": {}}, want: 0},
		{name: "all answered", answers: map[string][]int{"a": {0}, "b": {1}, "c": {2}}, want: 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := quizProgress(types.QuizPayload{Questions: questions, UserAnswers: tc.answers})
			if got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}

	if got := quizProgress(types.QuizPayload{}); got != 0 {
		t.Fatalf("empty quiz should report 0, got %d", got)
	}
}

func TestFlashcardProgress(t *testing.T) {
	payload := types.FlashcardPayload{
		Cards: []types.Flashcard{{ID: "x"}, {ID: "y"}, {ID: "z"}},
		Known: map[string]bool{"x": true, "y": true},
	}
	if got := flashcardProgress(payload); got != 67 {
		t.Fatalf("expected 67, got %d", got)
	}
	if got := flashcardProgress(types.FlashcardPayload{}); got != 0 {
		t.Fatalf("empty deck should report 0, got %d", got)
	}
}

func TestChatTitleFrom(t *testing.T) {
	if got := chatTitleFrom("court"); got != "court" {
		t.Fatalf("short title changed: %q", got)
	}
	long := "Quelles sont les étapes de la prise en charge d'un arrêt cardiaque chez l'adulte ?"
	got := chatTitleFrom(long)
	if len([]rune(got)) != 49 {
		t.Fatalf("expected 48 runes plus ellipsis, got %d (%q)", len([]rune(got)), got)
	}
}
