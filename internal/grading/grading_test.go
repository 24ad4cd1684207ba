package grading

import "testing"

func TestIsCorrectSetEquality(t *testing.T) {
	cases := []struct {
		name     string
		selected []int
		correct  []int
		want     bool
	}{
		{name: "reverse_order", selected: []int{2, 0}, correct: []int{0, 2}, want: true},
		{name: "subset", selected: []int{0}, correct: []int{0, 2}, want: false},
		{name: "superset", selected: []int{0, 1, 2}, correct: []int{0, 2}, want: false},
		{name: "single_match", selected: []int{1}, correct: []int{1}, want: true},
		{name: "single_miss", selected: []int{0}, correct: []int{1}, want: false},
		{name: "empty_selection", selected: nil, correct: []int{1}, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsCorrect(tc.selected, tc.correct); got != tc.want {
				t.Fatalf("IsCorrect(%v, %v) = %v, want %v", tc.selected, tc.correct, got, tc.want)
			}
		})
	}
}

func TestGrade(t *testing.T) {
	key := map[string][]int{
		"q1": {0, 2},
		"q2": {1},
		"q3": {3},
	}
	answers := map[string][]int{
		"q1": {2, 0},
		"q2": {0},
		// q3 unanswered
	}
	r := Grade(key, answers)
	if r.Score != 1 || r.Total != 3 {
		t.Fatalf("score = %d/%d, want 1/3", r.Score, r.Total)
	}
	if r.Percentage != 33 {
		t.Fatalf("percentage = %d, want 33", r.Percentage)
	}
	if r.OutOf20 != 7 {
		t.Fatalf("out of 20 = %d, want 7", r.OutOf20)
	}
}

func TestGradeEmptyQuiz(t *testing.T) {
	r := Grade(nil, nil)
	if r.Score != 0 || r.Total != 0 || r.Percentage != 0 || r.OutOf20 != 0 {
		t.Fatalf("empty quiz result = %+v, want zeros", r)
	}
}

func TestGradePerfect(t *testing.T) {
	key := map[string][]int{"q1": {0}, "q2": {1, 2}}
	answers := map[string][]int{"q1": {0}, "q2": {2, 1}}
	r := Grade(key, answers)
	if r.Score != 2 || r.Percentage != 100 || r.OutOf20 != 20 {
		t.Fatalf("perfect result = %+v", r)
	}
}
