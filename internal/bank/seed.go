package bank

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/p-n-ai/trivia/internal/trivia"
)

// Seed inserts the bank into store when the store holds no questions yet.
// Categories are matched by type. It returns the number of questions inserted.
func Seed(ctx context.Context, store trivia.Store, b *Bank) (int, error) {
	existing, err := store.CountQuestions(ctx)
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	if existing > 0 {
		slog.Info("question bank already populated, skipping seed", "questions", existing)
		return 0, nil
	}

	inserted := 0
	for _, c := range b.Categories {
		category, err := store.CreateCategory(ctx, strings.TrimSpace(c.Type))
		if err != nil {
			return inserted, fmt.Errorf("seed category %q: %w", c.Type, err)
		}
		for _, e := range c.Questions {
			q := trivia.Question{
				Question:   strings.TrimSpace(e.Question),
				Answer:     strings.TrimSpace(e.Answer),
				Category:   category.ID,
				Difficulty: e.Difficulty,
			}
			if q.Question == "" || q.Answer == "" ||
				q.Difficulty < trivia.MinDifficulty || q.Difficulty > trivia.MaxDifficulty {
				slog.Warn("skipping invalid seed question", "category", c.Type, "question", e.Question)
				continue
			}
			if _, err := store.CreateQuestion(ctx, q); err != nil {
				return inserted, fmt.Errorf("seed question %q: %w", e.Question, err)
			}
			inserted++
		}
	}

	slog.Info("question bank seeded", "categories", len(b.Categories), "questions", inserted)
	return inserted, nil
}

// FromStore snapshots every category and question in store as a Bank.
func FromStore(ctx context.Context, store trivia.Store) (*Bank, error) {
	categories, err := store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	b := &Bank{Categories: make([]CategoryEntry, 0, len(categories))}
	for _, c := range categories {
		questions, err := store.QuestionsByCategory(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("questions for category %d: %w", c.ID, err)
		}
		entry := CategoryEntry{Type: c.Type, Questions: make([]Entry, 0, len(questions))}
		for _, q := range questions {
			entry.Questions = append(entry.Questions, Entry{
				Question:   q.Question,
				Answer:     q.Answer,
				Difficulty: q.Difficulty,
			})
		}
		b.Categories = append(b.Categories, entry)
	}
	return b, nil
}
