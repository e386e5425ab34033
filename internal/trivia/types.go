// Package trivia holds the question bank domain: categories, questions, the
// stores that persist them and the quiz selection rules.
package trivia

import "errors"

var (
	// ErrNotFound is returned when a category or question does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalid is returned when input fails validation.
	ErrInvalid = errors.New("invalid input")
	// ErrNoQuestionsLeft is returned when every eligible quiz question has been asked.
	ErrNoQuestionsLeft = errors.New("no questions left")
)

const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

// Category groups questions by subject (e.g., Science, History).
type Category struct {
	ID   int    `json:"id"`
	Type string `json:"type"`
}

// Question is a single trivia question. Field order matches the column order
// used by PostgresStore queries.
type Question struct {
	ID         int    `json:"id"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Category   int    `json:"category"`
	Difficulty int    `json:"difficulty"`
}

// CategoryMap indexes category types by id, the shape clients render.
func CategoryMap(categories []Category) map[int]string {
	m := make(map[int]string, len(categories))
	for _, c := range categories {
		m[c.ID] = c.Type
	}
	return m
}
