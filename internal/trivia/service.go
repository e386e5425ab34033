package trivia

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"strings"

	"golang.org/x/sync/errgroup"
)

const defaultQuestionsPerPage = 10

// ServiceConfig holds dependencies for the question bank service.
type ServiceConfig struct {
	Store            Store
	Cache            CategoryCache // optional
	Events           EventLogger   // optional
	QuestionsPerPage int           // default 10
	Intn             func(n int) int
}

// Service implements the question bank operations on top of a Store.
type Service struct {
	store            Store
	cache            CategoryCache
	events           EventLogger
	questionsPerPage int
	intn             func(n int) int
}

// CategoryList is the full category index.
type CategoryList struct {
	Categories map[int]string
	Total      int
}

// QuestionPage is one page of the question listing.
type QuestionPage struct {
	Questions       []Question
	Total           int
	Categories      map[int]string
	CurrentCategory *string
}

// QuestionList is a filtered, unpaginated question listing.
type QuestionList struct {
	Questions       []Question
	Total           int
	CurrentCategory *string
}

// MutationResult reports the affected question id with the refreshed first page.
type MutationResult struct {
	ID        int
	Questions []Question
	Total     int
}

// NewQuestion is the input for CreateQuestion.
type NewQuestion struct {
	Question   string
	Answer     string
	Category   int
	Difficulty int
}

// NewService creates a new question bank service.
func NewService(cfg ServiceConfig) *Service {
	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}
	events := cfg.Events
	if events == nil {
		events = NopEventLogger{}
	}
	perPage := cfg.QuestionsPerPage
	if perPage <= 0 {
		perPage = defaultQuestionsPerPage
	}
	intn := cfg.Intn
	if intn == nil {
		intn = rand.IntN
	}
	return &Service{
		store:            store,
		cache:            cfg.Cache,
		events:           events,
		questionsPerPage: perPage,
		intn:             intn,
	}
}

// Store returns the underlying store.
func (s *Service) Store() Store {
	return s.store
}

// Categories returns every category, read through the category cache.
func (s *Service) Categories(ctx context.Context) (CategoryList, error) {
	categories, err := s.categories(ctx)
	if err != nil {
		return CategoryList{}, err
	}
	return CategoryList{
		Categories: CategoryMap(categories),
		Total:      len(categories),
	}, nil
}

// ListQuestions returns the given 1-based page of questions ordered by id.
func (s *Service) ListQuestions(ctx context.Context, page int) (QuestionPage, error) {
	if page < 1 {
		return QuestionPage{}, fmt.Errorf("%w: page must be at least 1, got %d", ErrInvalid, page)
	}
	// No store can hold a page whose offset overflows int.
	if page > math.MaxInt/s.questionsPerPage {
		return QuestionPage{}, fmt.Errorf("page %d: %w", page, ErrNotFound)
	}

	var (
		questions  []Question
		total      int
		categories []Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		questions, err = s.store.ListQuestions(gctx, (page-1)*s.questionsPerPage, s.questionsPerPage)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.store.CountQuestions(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = s.categories(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return QuestionPage{}, fmt.Errorf("list questions: %w", err)
	}

	if len(questions) == 0 {
		return QuestionPage{}, fmt.Errorf("page %d: %w", page, ErrNotFound)
	}

	return QuestionPage{
		Questions:  questions,
		Total:      total,
		Categories: CategoryMap(categories),
	}, nil
}

// SearchQuestions returns questions whose text contains term, ignoring case.
func (s *Service) SearchQuestions(ctx context.Context, term string) (QuestionList, error) {
	if strings.TrimSpace(term) == "" {
		return QuestionList{}, fmt.Errorf("%w: search term is required", ErrInvalid)
	}

	questions, err := s.store.SearchQuestions(ctx, term)
	if err != nil {
		return QuestionList{}, fmt.Errorf("search questions: %w", err)
	}
	return QuestionList{Questions: nonNil(questions), Total: len(questions)}, nil
}

// QuestionsByCategory returns all questions in a category.
func (s *Service) QuestionsByCategory(ctx context.Context, categoryID int) (QuestionList, error) {
	category, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		return QuestionList{}, err
	}

	questions, err := s.store.QuestionsByCategory(ctx, categoryID)
	if err != nil {
		return QuestionList{}, fmt.Errorf("questions by category: %w", err)
	}
	return QuestionList{
		Questions:       nonNil(questions),
		Total:           len(questions),
		CurrentCategory: &category.Type,
	}, nil
}

// CreateQuestion validates and stores a new question.
func (s *Service) CreateQuestion(ctx context.Context, in NewQuestion) (MutationResult, error) {
	q := Question{
		Question:   strings.TrimSpace(in.Question),
		Answer:     strings.TrimSpace(in.Answer),
		Category:   in.Category,
		Difficulty: in.Difficulty,
	}
	if err := validateQuestion(q); err != nil {
		return MutationResult{}, err
	}

	created, err := s.store.CreateQuestion(ctx, q)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return MutationResult{}, fmt.Errorf("%w: unknown category %d", ErrInvalid, q.Category)
		}
		return MutationResult{}, fmt.Errorf("create question: %w", err)
	}

	s.logEvent(Event{
		EventType: EventQuestionCreated,
		Data:      map[string]any{"question_id": created.ID, "category": created.Category},
	})
	slog.Info("question created", "question_id", created.ID, "category", created.Category)

	return s.mutationResult(ctx, created.ID)
}

// DeleteQuestion removes a question by id.
func (s *Service) DeleteQuestion(ctx context.Context, id int) (MutationResult, error) {
	if err := s.store.DeleteQuestion(ctx, id); err != nil {
		return MutationResult{}, err
	}

	s.logEvent(Event{
		EventType: EventQuestionDeleted,
		Data:      map[string]any{"question_id": id},
	})
	slog.Info("question deleted", "question_id", id)

	return s.mutationResult(ctx, id)
}

// NextQuizQuestion picks a random question not in previous. A categoryID of 0
// draws from every category.
func (s *Service) NextQuizQuestion(ctx context.Context, previous []int, categoryID int) (Question, error) {
	if categoryID < 0 {
		return Question{}, fmt.Errorf("%w: category id must not be negative", ErrInvalid)
	}
	if categoryID != 0 {
		if _, err := s.store.GetCategory(ctx, categoryID); err != nil {
			return Question{}, err
		}
	}

	candidates, err := s.store.QuizCandidates(ctx, categoryID, previous)
	if err != nil {
		return Question{}, fmt.Errorf("quiz candidates: %w", err)
	}
	return selectQuestion(candidates, previous, s.intn)
}

// CheckAnswer reports whether answer matches the stored answer for a question.
func (s *Service) CheckAnswer(ctx context.Context, questionID int, answer string) (bool, Question, error) {
	q, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return false, Question{}, err
	}
	return answersMatch(answer, q.Answer), q, nil
}

// LogEvent records an event, logging rather than returning failures.
func (s *Service) LogEvent(event Event) {
	s.logEvent(event)
}

// InvalidateCategories drops the cached category list.
func (s *Service) InvalidateCategories(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		slog.Warn("failed to invalidate category cache", "error", err)
	}
}

func (s *Service) categories(ctx context.Context) ([]Category, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Categories(ctx)
		if err != nil {
			slog.Warn("category cache read failed", "error", err)
		} else if ok {
			return cached, nil
		}
	}

	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.StoreCategories(ctx, categories); err != nil {
			slog.Warn("category cache write failed", "error", err)
		}
	}
	return categories, nil
}

func (s *Service) mutationResult(ctx context.Context, id int) (MutationResult, error) {
	questions, err := s.store.ListQuestions(ctx, 0, s.questionsPerPage)
	if err != nil {
		return MutationResult{}, fmt.Errorf("list questions: %w", err)
	}
	total, err := s.store.CountQuestions(ctx)
	if err != nil {
		return MutationResult{}, fmt.Errorf("count questions: %w", err)
	}
	return MutationResult{ID: id, Questions: nonNil(questions), Total: total}, nil
}

func (s *Service) logEvent(event Event) {
	if err := s.events.LogEvent(event); err != nil {
		slog.Warn("failed to log event", "type", event.EventType, "error", err)
	}
}

func validateQuestion(q Question) error {
	switch {
	case q.Question == "":
		return fmt.Errorf("%w: question text is required", ErrInvalid)
	case q.Answer == "":
		return fmt.Errorf("%w: answer is required", ErrInvalid)
	case q.Difficulty < MinDifficulty || q.Difficulty > MaxDifficulty:
		return fmt.Errorf("%w: difficulty must be between %d and %d, got %d", ErrInvalid, MinDifficulty, MaxDifficulty, q.Difficulty)
	case q.Category <= 0:
		return fmt.Errorf("%w: category is required", ErrInvalid)
	}
	return nil
}

func nonNil(questions []Question) []Question {
	if questions == nil {
		return []Question{}
	}
	return questions
}
