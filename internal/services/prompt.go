package services

import (
	"fmt"
	"strings"

	"github.com/parastudy/parastudy-backend/internal/relevance"
	"github.com/parastudy/parastudy-backend/internal/types"
)

// Prompt assembly shared by the generation services. Each feature keeps
// its own system instruction; the course-source context block is built
// the same way everywhere.

const (
	// perSourceCharBudget caps how much of one document's text is inlined
	// into a prompt. Attachments bypass this; they travel as inline bytes.
	perSourceCharBudget = 12000

	chatSystemInstruction = `Tu es un assistant d'études pour étudiants paramédicaux (ambulanciers, aides-soignants, infirmiers).
Réponds en français, de façon claire et structurée. Appuie-toi d'abord sur les documents de cours fournis;
signale explicitement quand une information vient de connaissances générales et non des documents.
Ne donne jamais de conseil médical destiné à un patient réel.`

	quizSystemInstruction = `Tu génères des QCM d'entraînement pour étudiants paramédicaux à partir de documents de cours.
Chaque question peut avoir une ou plusieurs bonnes réponses. Réponds uniquement en JSON valide.`

	checklistSystemInstruction = `Tu génères des checklists de révision hiérarchiques pour étudiants paramédicaux.
Organise les items du général au particulier. Réponds uniquement en JSON valide.`

	flashcardSystemInstruction = `Tu génères des cartes de révision recto/verso pour étudiants paramédicaux.
Le recto est une question ou un terme, le verso une réponse concise. Réponds uniquement en JSON valide.`

	mindMapSystemInstruction = `Tu génères des plans de cours sous forme de liste markdown hiérarchique
(titres # et puces -) pour étudiants paramédicaux. Réponds uniquement avec le markdown, sans commentaire.`

	mnemonicSystemInstruction = `Tu inventes des moyens mnémotechniques en français pour étudiants paramédicaux.
Chaque lettre de l'acronyme doit correspondre à un élément du sujet. Réponds uniquement en JSON valide.`
)

// toRelevanceSources maps stored course documents into the selector's
// input shape.
func toRelevanceSources(sources []*types.CourseSource) []relevance.Source {
	out := make([]relevance.Source, 0, len(sources))
	for _, s := range sources {
		out = append(out, relevance.Source{
			Name:          s.Name,
			Content:       s.Content,
			Category:      s.Category,
			HasAttachment: s.HasAttachment(),
		})
	}
	return out
}

// truncateForPrompt trims text to the per-source budget at a rune
// boundary, appending a marker so the model knows the document continues.
func truncateForPrompt(text string, budget int) string {
	if budget <= 0 {
		budget = perSourceCharBudget
	}
	runes := []rune(text)
	if len(runes) <= budget {
		return text
	}
	return string(runes[:budget]) + "\n[... document tronqué ...]"
}

// buildSourceContext renders the selected documents into one prompt
// block. Sources without extracted text (pure attachments) are listed by
// name only; their bytes ride along as inline attachments.
func buildSourceContext(selected []relevance.Source) string {
	if len(selected) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Documents de cours fournis :\n")
	for i, s := range selected {
		fmt.Fprintf(&b, "\n--- Document %d : %s", i+1, s.Name)
		if s.Category != "" {
			fmt.Fprintf(&b, " (%s)", s.Category)
		}
		b.WriteString(" ---\n")
		if strings.TrimSpace(s.Content) == "" {
			b.WriteString("[document joint en pièce jointe]\n")
			continue
		}
		b.WriteString(truncateForPrompt(s.Content, perSourceCharBudget))
		b.WriteString("\n")
	}
	return b.String()
}

func quizPrompt(topic string, questionCount int) string {
	if questionCount <= 0 {
		questionCount = 10
	}
	return fmt.Sprintf(`Génère %d questions de QCM sur le sujet suivant : %q.

Réponds avec un objet JSON de la forme :
{"questions":[{"question":"...","options":["...","...","...","..."],"correctIndices":[0],"explanation":"..."}]}

Règles :
- exactement 4 options par question
- "correctIndices" liste les index (base 0) de toutes les bonnes réponses
- au moins une question à réponses multiples quand le sujet s'y prête
- "explanation" justifie la réponse en une ou deux phrases`, questionCount, topic)
}

func checklistPrompt(topic string) string {
	return fmt.Sprintf(`Génère une checklist de révision sur le sujet suivant : %q.

Réponds avec un objet JSON de la forme :
{"items":[{"title":"...","description":"...","children":[{"title":"...","description":"..."}]}]}

Règles :
- deux niveaux maximum (items et sous-items)
- 4 à 8 items de premier niveau
- "description" est optionnelle et reste courte`, topic)
}

func flashcardPrompt(topic string, cardCount int) string {
	if cardCount <= 0 {
		cardCount = 12
	}
	return fmt.Sprintf(`Génère %d cartes de révision sur le sujet suivant : %q.

Réponds avec un objet JSON de la forme :
{"cards":[{"front":"...","back":"..."}]}

Règles :
- le recto ("front") est une question ou un terme clé
- le verso ("back") tient en trois phrases maximum`, cardCount, topic)
}

func mindMapPrompt(topic string) string {
	return fmt.Sprintf(`Génère le plan hiérarchique d'une carte mentale sur le sujet suivant : %q.

Règles :
- commence par un titre de niveau 1 (# Sujet)
- utilise ## et ### pour les branches, puis des puces - pour les feuilles
- trois niveaux de profondeur maximum sous le titre
- pas de texte hors du plan`, topic)
}

func mnemonicPrompt(topic string) string {
	return fmt.Sprintf(`Invente un moyen mnémotechnique sur le sujet suivant : %q.

Réponds avec un objet JSON de la forme :
{"mnemonic":"ACRONYME","items":[{"letter":"A","meaning":"..."}]}

Règles :
- l'acronyme est un mot français prononçable quand c'est possible
- chaque lettre reçoit exactement une signification`, topic)
}
