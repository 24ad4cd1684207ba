package types

import (
	"time"

	"github.com/parastudy/parastudy-backend/internal/checklist"
)

// Payload shapes stored in StudySession.Payload, one per feature.
// Derived fields (score, progress) are recomputed from the payload on
// every mutation and never patched incrementally.

type ChatMessage struct {
	Role      string    `json:"role"` // "user" or "model"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatPayload struct {
	Messages []ChatMessage `json:"messages"`
}

type QuizQuestion struct {
	ID             string   `json:"id"`
	Question       string   `json:"question"`
	Options        []string `json:"options"`
	CorrectIndices []int    `json:"correctIndices"`
	Explanation    string   `json:"explanation,omitempty"`
}

type QuizPayload struct {
	Questions    []QuizQuestion   `json:"questions"`
	UserAnswers  map[string][]int `json:"userAnswers"`
	CurrentIndex int              `json:"currentIndex"`
	Finished     bool             `json:"finished"`
	Score        int              `json:"score"`
	Percentage   int              `json:"percentage"`
	OutOf20      int              `json:"outOf20"`
}

type ChecklistPayload struct {
	Items []*checklist.Item `json:"items"`
}

type Flashcard struct {
	ID    string `json:"id"`
	Front string `json:"front"`
	Back  string `json:"back"`
}

type FlashcardPayload struct {
	Cards        []Flashcard     `json:"cards"`
	CurrentIndex int             `json:"currentIndex"`
	Known        map[string]bool `json:"known"`
}

type MindMapPayload struct {
	// Markdown is the outline text as returned by the model; the tree is
	// re-derived from it on read, never stored.
	Markdown string `json:"markdown"`
}

type MnemonicItem struct {
	Letter  string `json:"letter"`
	Meaning string `json:"meaning"`
}

type MnemonicPayload struct {
	Topic    string         `json:"topic"`
	Mnemonic string         `json:"mnemonic"`
	Items    []MnemonicItem `json:"items"`
}
