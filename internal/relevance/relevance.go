// Package relevance picks which course sources accompany a generation
// request. It is a cheap keyword pre-filter, not a search index: its only
// job is to keep the context forwarded to the model small.
package relevance

import "strings"

// Source is the selector's view of one course document.
type Source struct {
	Name          string
	Content       string
	Category      string
	HasAttachment bool
}

const (
	// fallbackCap bounds the result when no trigger keyword matched and
	// only user-supplied attachments are forwarded.
	fallbackCap = 3
	// matchCap bounds the result when topic tags matched.
	matchCap = 5
)

// triggers maps substrings of the user query (lowercased) to topic tags.
// The student base writes in French, Arabic or English, so each topic
// carries triggers in all three.
var triggers = map[string][]string{
	// urgences / first aid
	"urgence":    {"urgences"},
	"secourisme": {"urgences", "secourisme"},
	"premiers secours": {"urgences", "secourisme"},
	"first aid":  {"urgences", "secourisme"},
	"emergency":  {"urgences"},
	"إسعاف":      {"urgences", "secourisme"},
	"طوارئ":      {"urgences"},

	// anatomie / physiologie
	"anatomie":    {"anatomie"},
	"anatomy":     {"anatomie"},
	"تشريح":       {"anatomie"},
	"physiologie": {"physiologie"},
	"physiology":  {"physiologie"},

	// cardiologie
	"cardio": {"cardiologie"},
	"coeur":  {"cardiologie"},
	"cœur":   {"cardiologie"},
	"heart":  {"cardiologie"},
	"قلب":    {"cardiologie"},

	// pharmacologie
	"pharmaco":   {"pharmacologie"},
	"medicament": {"pharmacologie"},
	"médicament": {"pharmacologie"},
	"drug":       {"pharmacologie"},
	"دواء":       {"pharmacologie"},
	"أدوية":      {"pharmacologie"},

	// traumatologie
	"trauma":   {"traumatologie"},
	"fracture": {"traumatologie"},
	"كسر":      {"traumatologie"},

	// hygiène / infectiologie
	"hygiene":   {"hygiene"},
	"hygiène":   {"hygiene"},
	"infection": {"hygiene", "infectiologie"},
	"عدوى":      {"hygiene", "infectiologie"},

	// réanimation
	"reanimation": {"reanimation"},
	"réanimation": {"reanimation"},
	"rcp":         {"reanimation"},
	"cpr":         {"reanimation"},
	"إنعاش":       {"reanimation"},
}

// Select returns the sources worth attaching to the query. Attachment
// sources are always in scope; text sources only when a trigger keyword
// in the query maps to a tag found in the source's name, content or
// category. With no trigger match only attachments are returned.
func Select(query string, sources []Source) []Source {
	tags := matchedTags(query)

	if len(tags) == 0 {
		out := make([]Source, 0, fallbackCap)
		for _, s := range sources {
			if !s.HasAttachment {
				continue
			}
			out = append(out, s)
			if len(out) == fallbackCap {
				break
			}
		}
		return out
	}

	seen := make(map[Source]bool)
	out := make([]Source, 0, matchCap)
	add := func(s Source) {
		if len(out) >= matchCap || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}

	// Attachments first: user-supplied, always in scope.
	for _, s := range sources {
		if s.HasAttachment {
			add(s)
		}
	}
	for _, s := range sources {
		if matchesAny(s, tags) {
			add(s)
		}
	}
	return out
}

func matchedTags(query string) []string {
	q := strings.ToLower(query)
	var tags []string
	for trigger, t := range triggers {
		if strings.Contains(q, trigger) {
			tags = append(tags, t...)
		}
	}
	return tags
}

func matchesAny(s Source, tags []string) bool {
	name := strings.ToLower(s.Name)
	content := strings.ToLower(s.Content)
	category := strings.ToLower(s.Category)
	for _, tag := range tags {
		if category == tag {
			return true
		}
		if strings.Contains(name, tag) || strings.Contains(content, tag) || strings.Contains(category, tag) {
			return true
		}
	}
	return false
}
