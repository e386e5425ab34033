package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/p-n-ai/trivia/internal/trivia"
)

type categoriesResponse struct {
	Success         bool           `json:"success"`
	Categories      map[int]string `json:"categories"`
	TotalCategories int            `json:"total_categories"`
}

type questionPageResponse struct {
	Success         bool              `json:"success"`
	Questions       []trivia.Question `json:"questions"`
	TotalQuestions  int               `json:"total_questions"`
	Categories      map[int]string    `json:"categories"`
	CurrentCategory *string           `json:"current_category"`
}

type questionListResponse struct {
	Success         bool              `json:"success"`
	Questions       []trivia.Question `json:"questions"`
	TotalQuestions  int               `json:"total_questions"`
	CurrentCategory *string           `json:"current_category"`
}

type createdResponse struct {
	Success        bool              `json:"success"`
	Created        int               `json:"created"`
	Questions      []trivia.Question `json:"questions"`
	TotalQuestions int               `json:"total_questions"`
}

type deletedResponse struct {
	Success        bool              `json:"success"`
	Deleted        int               `json:"deleted"`
	Questions      []trivia.Question `json:"questions"`
	TotalQuestions int               `json:"total_questions"`
}

type createQuestionRequest struct {
	Question   string  `json:"question"`
	Answer     string  `json:"answer"`
	Difficulty flexInt `json:"difficulty"`
	Category   flexInt `json:"category"`
}

type searchRequest struct {
	SearchTerm string `json:"searchTerm"`
}

func (s *server) handleCategories(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Categories(r.Context())
	if err != nil {
		writeServiceError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, categoriesResponse{
		Success:         true,
		Categories:      list.Categories,
		TotalCategories: list.Total,
	})
}

func (s *server) handleCategoryQuestions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	list, err := s.svc.QuestionsByCategory(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, questionListResponse{
		Success:         true,
		Questions:       list.Questions,
		TotalQuestions:  list.Total,
		CurrentCategory: list.CurrentCategory,
	})
}

func (s *server) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		page = 1
	}

	result, err := s.svc.ListQuestions(r.Context(), page)
	if err != nil {
		writeServiceError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, questionPageResponse{
		Success:         true,
		Questions:       result.Questions,
		TotalQuestions:  result.Total,
		Categories:      result.Categories,
		CurrentCategory: result.CurrentCategory,
	})
}

func (s *server) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req createQuestionRequest
	if err := decodeBody(w, r, createQuestionSchema, &req); err != nil {
		writeDecodeError(w, err, http.StatusUnprocessableEntity)
		return
	}

	result, err := s.svc.CreateQuestion(r.Context(), trivia.NewQuestion{
		Question:   req.Question,
		Answer:     req.Answer,
		Category:   int(req.Category),
		Difficulty: int(req.Difficulty),
	})
	if err != nil {
		writeServiceError(w, r, err, http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, createdResponse{
		Success:        true,
		Created:        result.ID,
		Questions:      result.Questions,
		TotalQuestions: result.Total,
	})
}

func (s *server) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	result, err := s.svc.DeleteQuestion(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, deletedResponse{
		Success:        true,
		Deleted:        result.ID,
		Questions:      result.Questions,
		TotalQuestions: result.Total,
	})
}

func (s *server) handleSearchQuestions(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeBody(w, r, searchSchema, &req); err != nil {
		writeDecodeError(w, err, http.StatusBadRequest)
		return
	}

	list, err := s.svc.SearchQuestions(r.Context(), req.SearchTerm)
	if err != nil {
		writeServiceError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, questionListResponse{
		Success:        true,
		Questions:      list.Questions,
		TotalQuestions: list.Total,
	})
}

// pathID reads the numeric {id} route variable. The route pattern already
// restricts it to digits, so only overflow can fail here.
func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound)
		return 0, false
	}
	return id, true
}

// writeDecodeError answers 400 for unparseable bodies and schemaStatus for
// well-formed bodies that fail validation.
func writeDecodeError(w http.ResponseWriter, err error, schemaStatus int) {
	if errors.Is(err, errSchema) {
		writeError(w, schemaStatus)
		return
	}
	writeError(w, http.StatusBadRequest)
}
