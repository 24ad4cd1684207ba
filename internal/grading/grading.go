// Package grading scores quiz attempts. A question is all-or-nothing:
// the selected option indices must match the answer key exactly as a set,
// which covers single-answer and multi-answer questions with one rule.
package grading

import "sort"

// Result summarizes a graded attempt.
type Result struct {
	Score      int `json:"score"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
	// OutOf20 is the display scale used on report cards.
	OutOf20 int `json:"outOf20"`
}

// IsCorrect reports whether the selected option indices equal the answer
// key, ignoring selection order.
func IsCorrect(selected, correct []int) bool {
	if len(selected) != len(correct) {
		return false
	}
	s := append([]int(nil), selected...)
	c := append([]int(nil), correct...)
	sort.Ints(s)
	sort.Ints(c)
	for i := range s {
		if s[i] != c[i] {
			return false
		}
	}
	return true
}

// Grade scores every question in the answer key against the user's
// selections. Unanswered questions count as incorrect.
func Grade(answerKey map[string][]int, userAnswers map[string][]int) Result {
	r := Result{Total: len(answerKey)}
	for id, correct := range answerKey {
		if IsCorrect(userAnswers[id], correct) {
			r.Score++
		}
	}
	if r.Total > 0 {
		r.Percentage = roundRatio(r.Score, r.Total, 100)
		r.OutOf20 = roundRatio(r.Score, r.Total, 20)
	}
	return r
}

func roundRatio(num, den, scale int) int {
	return int(float64(num)/float64(den)*float64(scale) + 0.5)
}
