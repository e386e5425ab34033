package trivia

import (
	"strings"

	"golang.org/x/text/cases"
)

// selectQuestion picks uniformly among candidates whose id is not in previous.
// intn must return a value in [0, n).
func selectQuestion(candidates []Question, previous []int, intn func(n int) int) (Question, error) {
	seen := make(map[int]struct{}, len(previous))
	for _, id := range previous {
		seen[id] = struct{}{}
	}

	eligible := make([]Question, 0, len(candidates))
	for _, q := range candidates {
		if _, ok := seen[q.ID]; !ok {
			eligible = append(eligible, q)
		}
	}
	if len(eligible) == 0 {
		return Question{}, ErrNoQuestionsLeft
	}
	return eligible[intn(len(eligible))], nil
}

// answersMatch compares answers ignoring case and surrounding or repeated whitespace.
func answersMatch(given, want string) bool {
	fold := cases.Fold()
	normalize := func(s string) string {
		return fold.String(strings.Join(strings.Fields(s), " "))
	}
	g := normalize(given)
	return g != "" && g == normalize(want)
}
