package trivia

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoActiveQuestion is returned when an answer arrives with no question pending.
var ErrNoActiveQuestion = errors.New("no active question")

// Session is one interactive quiz run. It remembers which questions were
// asked so none repeats. A Session is not safe for concurrent use.
type Session struct {
	ID string

	svc          *Service
	category     int
	maxQuestions int
	previous     []int
	current      *Question
	score        int
}

// AnswerResult reports the outcome of one answer.
type AnswerResult struct {
	Correct bool
	Answer  string
	Score   int
	Asked   int
}

// NewSession starts a quiz run over categoryID (0 for all categories) that
// ends after maxQuestions questions.
func (s *Service) NewSession(ctx context.Context, id string, categoryID, maxQuestions int) (*Session, error) {
	if categoryID < 0 {
		return nil, fmt.Errorf("%w: category id must not be negative", ErrInvalid)
	}
	if categoryID != 0 {
		if _, err := s.store.GetCategory(ctx, categoryID); err != nil {
			return nil, err
		}
	}
	if maxQuestions <= 0 {
		return nil, fmt.Errorf("%w: max questions must be positive", ErrInvalid)
	}
	return &Session{
		ID:           id,
		svc:          s,
		category:     categoryID,
		maxQuestions: maxQuestions,
	}, nil
}

// Next serves a question that has not been asked in this session. It returns
// ErrNoQuestionsLeft once the pool or the question limit is exhausted.
func (q *Session) Next(ctx context.Context) (Question, error) {
	if len(q.previous) >= q.maxQuestions {
		return Question{}, ErrNoQuestionsLeft
	}

	next, err := q.svc.NextQuizQuestion(ctx, q.previous, q.category)
	if err != nil {
		return Question{}, err
	}

	q.previous = append(q.previous, next.ID)
	q.current = &next
	q.svc.logEvent(Event{
		SessionID: q.ID,
		EventType: EventQuestionServed,
		Data:      map[string]any{"question_id": next.ID, "category": q.category},
	})
	return next, nil
}

// Answer checks an answer against the pending question.
func (q *Session) Answer(ctx context.Context, answer string) (AnswerResult, error) {
	if q.current == nil {
		return AnswerResult{}, ErrNoActiveQuestion
	}

	correct, stored, err := q.svc.CheckAnswer(ctx, q.current.ID, answer)
	if err != nil {
		return AnswerResult{}, err
	}
	if correct {
		q.score++
	}
	q.current = nil

	q.svc.logEvent(Event{
		SessionID: q.ID,
		EventType: EventAnswerChecked,
		Data:      map[string]any{"question_id": stored.ID, "correct": correct},
	})
	return AnswerResult{
		Correct: correct,
		Answer:  stored.Answer,
		Score:   q.score,
		Asked:   len(q.previous),
	}, nil
}

// Score returns the number of correct answers so far.
func (q *Session) Score() int { return q.score }

// Asked returns the number of questions served so far.
func (q *Session) Asked() int { return len(q.previous) }
