package trivia

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Store persists categories and questions.
type Store interface {
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id int) (Category, error)
	CreateCategory(ctx context.Context, categoryType string) (Category, error)

	ListQuestions(ctx context.Context, offset, limit int) ([]Question, error)
	CountQuestions(ctx context.Context) (int, error)
	GetQuestion(ctx context.Context, id int) (Question, error)
	SearchQuestions(ctx context.Context, term string) ([]Question, error)
	QuestionsByCategory(ctx context.Context, categoryID int) ([]Question, error)
	CreateQuestion(ctx context.Context, q Question) (Question, error)
	DeleteQuestion(ctx context.Context, id int) error

	// QuizCandidates returns questions whose id is not in exclude.
	// A categoryID of 0 matches every category.
	QuizCandidates(ctx context.Context, categoryID int, exclude []int) ([]Question, error)
}

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	categories     map[int]Category
	questions      map[int]Question
	nextCategoryID int
	nextQuestionID int
	mu             sync.RWMutex
}

// NewMemoryStore creates a new in-memory question store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		categories:     make(map[int]Category),
		questions:      make(map[int]Question),
		nextCategoryID: 1,
		nextQuestionID: 1,
	}
}

func (s *MemoryStore) ListCategories(_ context.Context) ([]Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b Category) int { return a.ID - b.ID })
	return out, nil
}

func (s *MemoryStore) GetCategory(_ context.Context, id int) (Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[id]
	if !ok {
		return Category{}, fmt.Errorf("category %d: %w", id, ErrNotFound)
	}
	return c, nil
}

// CreateCategory inserts a category, returning the existing one if the type is taken.
func (s *MemoryStore) CreateCategory(_ context.Context, categoryType string) (Category, error) {
	if strings.TrimSpace(categoryType) == "" {
		return Category{}, fmt.Errorf("%w: category type is required", ErrInvalid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.categories {
		if c.Type == categoryType {
			return c, nil
		}
	}
	c := Category{ID: s.nextCategoryID, Type: categoryType}
	s.categories[c.ID] = c
	s.nextCategoryID++
	return c, nil
}

func (s *MemoryStore) ListQuestions(_ context.Context, offset, limit int) ([]Question, error) {
	if offset < 0 || limit < 0 {
		return nil, fmt.Errorf("%w: offset %d, limit %d", ErrInvalid, offset, limit)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.sortedQuestions(func(Question) bool { return true })
	if offset >= len(all) {
		return []Question{}, nil
	}
	end := len(all)
	if limit < end-offset {
		end = offset + limit
	}
	return all[offset:end], nil
}

func (s *MemoryStore) CountQuestions(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.questions), nil
}

func (s *MemoryStore) GetQuestion(_ context.Context, id int) (Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.questions[id]
	if !ok {
		return Question{}, fmt.Errorf("question %d: %w", id, ErrNotFound)
	}
	return q, nil
}

// SearchQuestions matches term against question text case-insensitively.
// Both sides are lower-cased rune by rune, as ILIKE does, so "ß" never
// matches "SS".
func (s *MemoryStore) SearchQuestions(_ context.Context, term string) ([]Question, error) {
	needle := strings.ToLower(term)

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedQuestions(func(q Question) bool {
		return strings.Contains(strings.ToLower(q.Question), needle)
	}), nil
}

func (s *MemoryStore) QuestionsByCategory(_ context.Context, categoryID int) ([]Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedQuestions(func(q Question) bool { return q.Category == categoryID }), nil
}

func (s *MemoryStore) CreateQuestion(_ context.Context, q Question) (Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[q.Category]; !ok {
		return Question{}, fmt.Errorf("category %d: %w", q.Category, ErrNotFound)
	}
	q.ID = s.nextQuestionID
	s.questions[q.ID] = q
	s.nextQuestionID++
	return q, nil
}

func (s *MemoryStore) DeleteQuestion(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.questions[id]; !ok {
		return fmt.Errorf("question %d: %w", id, ErrNotFound)
	}
	delete(s.questions, id)
	return nil
}

func (s *MemoryStore) QuizCandidates(_ context.Context, categoryID int, exclude []int) ([]Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedQuestions(func(q Question) bool {
		if categoryID != 0 && q.Category != categoryID {
			return false
		}
		return !slices.Contains(exclude, q.ID)
	}), nil
}

// sortedQuestions returns matching questions ordered by id. Callers hold s.mu.
func (s *MemoryStore) sortedQuestions(match func(Question) bool) []Question {
	out := []Question{}
	for _, q := range s.questions {
		if match(q) {
			out = append(out, q)
		}
	}
	slices.SortFunc(out, func(a, b Question) int { return a.ID - b.ID })
	return out
}
