package api

import (
	"net/http"

	"github.com/p-n-ai/trivia/internal/trivia"
)

type quizCategory struct {
	ID   flexInt `json:"id"`
	Type string  `json:"type"`
}

type quizRequest struct {
	PreviousQuestions []int         `json:"previous_questions"`
	QuizCategory      *quizCategory `json:"quiz_category"`
}

type quizResponse struct {
	Success  bool            `json:"success"`
	Question trivia.Question `json:"question"`
}

func (s *server) handleQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if err := decodeBody(w, r, quizSchema, &req); err != nil {
		writeDecodeError(w, err, http.StatusBadRequest)
		return
	}

	categoryID := 0
	if req.QuizCategory != nil {
		categoryID = int(req.QuizCategory.ID)
	}

	q, err := s.svc.NextQuizQuestion(r.Context(), req.PreviousQuestions, categoryID)
	if err != nil {
		writeServiceError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, quizResponse{Success: true, Question: q})
}
