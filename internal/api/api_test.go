package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/p-n-ai/trivia/internal/api"
	"github.com/p-n-ai/trivia/internal/auth"
	"github.com/p-n-ai/trivia/internal/trivia"
)

// newTestService seeds Science (id 1: questions 1-3) and History (id 2: questions 4-5).
// The quiz always picks the first eligible question.
func newTestService(t *testing.T) *trivia.Service {
	t.Helper()
	ctx := context.Background()
	store := trivia.NewMemoryStore()

	science, _ := store.CreateCategory(ctx, "Science")
	history, _ := store.CreateCategory(ctx, "History")
	for _, q := range []trivia.Question{
		{Question: "What is the heaviest organ in the human body?", Answer: "The Liver", Category: science.ID, Difficulty: 4},
		{Question: "Who discovered penicillin?", Answer: "Alexander Fleming", Category: science.ID, Difficulty: 3},
		{Question: "Hematology is a branch of medicine involving the study of what?", Answer: "Blood", Category: science.ID, Difficulty: 4},
		{Question: "Whose autobiography is entitled 'I Know Why the Caged Bird Sings'?", Answer: "Maya Angelou", Category: history.ID, Difficulty: 2},
		{Question: "Which dung beetle was worshipped by the ancient Egyptians?", Answer: "Scarab", Category: history.ID, Difficulty: 4},
	} {
		if _, err := store.CreateQuestion(ctx, q); err != nil {
			t.Fatalf("CreateQuestion() error = %v", err)
		}
	}

	return trivia.NewService(trivia.ServiceConfig{
		Store:            store,
		QuestionsPerPage: 2,
		Intn:             func(int) int { return 0 },
	})
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	return api.NewHandler(api.Config{Service: newTestService(t)})
}

type response struct {
	Code   int
	Header http.Header
	Body   map[string]any
	Raw    string
}

func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) response {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	res := response{Code: rec.Code, Header: rec.Header(), Raw: rec.Body.String()}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &res.Body); err != nil {
			t.Fatalf("decode body %q: %v", rec.Body.String(), err)
		}
	}
	return res
}

func assertError(t *testing.T, res response, status int, message string) {
	t.Helper()
	if res.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", res.Code, status, res.Raw)
	}
	if res.Body["success"] != false {
		t.Errorf("success = %v, want false", res.Body["success"])
	}
	if res.Body["error"] != float64(status) {
		t.Errorf("error = %v, want %d", res.Body["error"], status)
	}
	if res.Body["message"] != message {
		t.Errorf("message = %v, want %q", res.Body["message"], message)
	}
}

func questionIDs(t *testing.T, body map[string]any) []int {
	t.Helper()
	raw, ok := body["questions"].([]any)
	if !ok {
		t.Fatalf("questions = %T, want array", body["questions"])
	}
	out := make([]int, len(raw))
	for i, q := range raw {
		out[i] = int(q.(map[string]any)["id"].(float64))
	}
	return out
}

func TestGetCategories(t *testing.T) {
	res := do(t, newTestHandler(t), http.MethodGet, "/categories", "")

	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.Code)
	}
	cats := res.Body["categories"].(map[string]any)
	if cats["1"] != "Science" || cats["2"] != "History" {
		t.Errorf("categories = %v", cats)
	}
	if res.Body["total_categories"] != float64(2) {
		t.Errorf("total_categories = %v, want 2", res.Body["total_categories"])
	}
}

func TestListQuestions(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name    string
		path    string
		wantIDs []int
	}{
		{"default page", "/questions", []int{1, 2}},
		{"second page", "/questions?page=2", []int{3, 4}},
		{"non-numeric page falls back to first", "/questions?page=abc", []int{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := do(t, h, http.MethodGet, tt.path, "")
			if res.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", res.Code)
			}
			got := questionIDs(t, res.Body)
			if len(got) != len(tt.wantIDs) || got[0] != tt.wantIDs[0] || got[1] != tt.wantIDs[1] {
				t.Errorf("ids = %v, want %v", got, tt.wantIDs)
			}
			if res.Body["total_questions"] != float64(5) {
				t.Errorf("total_questions = %v, want 5", res.Body["total_questions"])
			}
			if _, ok := res.Body["categories"].(map[string]any); !ok {
				t.Errorf("categories missing: %v", res.Body)
			}
			if v, ok := res.Body["current_category"]; !ok || v != nil {
				t.Errorf("current_category = %v, want null", v)
			}
		})
	}
}

func TestListQuestions_Errors(t *testing.T) {
	h := newTestHandler(t)

	assertError(t, do(t, h, http.MethodGet, "/questions?page=100", ""), http.StatusNotFound, "resource not found")
	assertError(t, do(t, h, http.MethodGet, "/questions?page=0", ""), http.StatusBadRequest, "bad request")
	assertError(t, do(t, h, http.MethodGet, "/questions?page=5000000000000000000", ""), http.StatusNotFound, "resource not found")

	// The server keeps serving after the oversized page.
	if res := do(t, h, http.MethodGet, "/questions", ""); res.Code != http.StatusOK {
		t.Errorf("GET /questions after huge page = %d, want 200", res.Code)
	}
}

func TestIDsBeyondIntegerRange(t *testing.T) {
	h := newTestHandler(t)

	assertError(t, do(t, h, http.MethodGet, "/categories/3000000000/questions", ""), http.StatusNotFound, "resource not found")
	assertError(t, do(t, h, http.MethodDelete, "/questions/3000000000", ""), http.StatusNotFound, "resource not found")
	assertError(t, do(t, h, http.MethodPost, "/quizzes",
		`{"previous_questions":[],"quiz_category":{"id":"3000000000"}}`), http.StatusNotFound, "resource not found")

	res := do(t, h, http.MethodPost, "/quizzes", `{"previous_questions":[3000000000],"quiz_category":{"id":0}}`)
	if res.Code != http.StatusOK {
		t.Fatalf("quiz with out-of-range previous id = %d (body %s), want 200", res.Code, res.Raw)
	}
	if q := res.Body["question"].(map[string]any); q["id"] != float64(1) {
		t.Errorf("question id = %v, want 1", q["id"])
	}
}

func TestCreateQuestion(t *testing.T) {
	h := newTestHandler(t)

	res := do(t, h, http.MethodPost, "/questions",
		`{"question":"What is the chemical symbol for gold?","answer":"Au","difficulty":2,"category":"1"}`)
	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", res.Code, res.Raw)
	}
	if res.Body["created"] != float64(6) {
		t.Errorf("created = %v, want 6", res.Body["created"])
	}
	if res.Body["total_questions"] != float64(6) {
		t.Errorf("total_questions = %v, want 6", res.Body["total_questions"])
	}

	found := do(t, h, http.MethodPost, "/questions/search", `{"searchTerm":"gold"}`)
	if found.Body["total_questions"] != float64(1) {
		t.Errorf("search after create total = %v, want 1", found.Body["total_questions"])
	}
}

func TestCreateQuestion_Errors(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name   string
		body   string
		status int
		msg    string
	}{
		{"malformed json", `{"question":`, http.StatusBadRequest, "bad request"},
		{"empty body", ``, http.StatusBadRequest, "bad request"},
		{"missing answer", `{"question":"q","difficulty":1,"category":1}`, http.StatusUnprocessableEntity, "unprocessable"},
		{"difficulty out of range", `{"question":"q","answer":"a","difficulty":9,"category":1}`, http.StatusUnprocessableEntity, "unprocessable"},
		{"non-numeric category", `{"question":"q","answer":"a","difficulty":1,"category":"science"}`, http.StatusUnprocessableEntity, "unprocessable"},
		{"unknown category", `{"question":"q","answer":"a","difficulty":1,"category":42}`, http.StatusUnprocessableEntity, "unprocessable"},
		{"blank question", `{"question":"   ","answer":"a","difficulty":1,"category":1}`, http.StatusUnprocessableEntity, "unprocessable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertError(t, do(t, h, http.MethodPost, "/questions", tt.body), tt.status, tt.msg)
		})
	}
}

func TestDeleteQuestion(t *testing.T) {
	h := newTestHandler(t)

	res := do(t, h, http.MethodDelete, "/questions/2", "")
	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.Code)
	}
	if res.Body["deleted"] != float64(2) {
		t.Errorf("deleted = %v, want 2", res.Body["deleted"])
	}
	if res.Body["total_questions"] != float64(4) {
		t.Errorf("total_questions = %v, want 4", res.Body["total_questions"])
	}

	assertError(t, do(t, h, http.MethodDelete, "/questions/2", ""), http.StatusNotFound, "resource not found")
	assertError(t, do(t, h, http.MethodDelete, "/questions/abc", ""), http.StatusNotFound, "resource not found")
}

func TestMethodNotAllowed(t *testing.T) {
	assertError(t, do(t, newTestHandler(t), http.MethodPut, "/questions/1", ""), http.StatusMethodNotAllowed, "method not allowed")
}

func TestUnknownRoute(t *testing.T) {
	assertError(t, do(t, newTestHandler(t), http.MethodGet, "/nope", ""), http.StatusNotFound, "resource not found")
}

func TestSearchQuestions(t *testing.T) {
	h := newTestHandler(t)

	res := do(t, h, http.MethodPost, "/questions/search", `{"searchTerm":"WHO"}`)
	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.Code)
	}
	if got := questionIDs(t, res.Body); len(got) != 2 || got[0] != 2 || got[1] != 4 {
		t.Errorf("ids = %v, want [2 4]", got)
	}
	if v, ok := res.Body["current_category"]; !ok || v != nil {
		t.Errorf("current_category = %v, want null", v)
	}

	empty := do(t, h, http.MethodPost, "/questions/search", `{"searchTerm":"zzz"}`)
	if empty.Code != http.StatusOK || empty.Body["total_questions"] != float64(0) {
		t.Errorf("no-match search = %d %v", empty.Code, empty.Body)
	}

	assertError(t, do(t, h, http.MethodPost, "/questions/search", `{"searchTerm":""}`), http.StatusBadRequest, "bad request")
	assertError(t, do(t, h, http.MethodPost, "/questions/search", `{}`), http.StatusBadRequest, "bad request")
}

func TestCategoryQuestions(t *testing.T) {
	h := newTestHandler(t)

	res := do(t, h, http.MethodGet, "/categories/2/questions", "")
	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.Code)
	}
	if got := questionIDs(t, res.Body); len(got) != 2 || got[0] != 4 {
		t.Errorf("ids = %v, want [4 5]", got)
	}
	if res.Body["current_category"] != "History" {
		t.Errorf("current_category = %v, want History", res.Body["current_category"])
	}

	assertError(t, do(t, h, http.MethodGet, "/categories/99/questions", ""), http.StatusNotFound, "resource not found")
}

func TestQuiz(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name   string
		body   string
		wantID int
	}{
		{"all categories", `{"previous_questions":[],"quiz_category":{"id":0,"type":"click"}}`, 1},
		{"skips previous", `{"previous_questions":[1,2],"quiz_category":{"id":0}}`, 3},
		{"scoped to category", `{"previous_questions":[4],"quiz_category":{"id":2,"type":"History"}}`, 5},
		{"string category id", `{"previous_questions":[],"quiz_category":{"id":"2","type":"History"}}`, 4},
		{"missing fields", `{}`, 1},
		{"null fields", `{"previous_questions":null,"quiz_category":null}`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := do(t, h, http.MethodPost, "/quizzes", tt.body)
			if res.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200 (body %s)", res.Code, res.Raw)
			}
			q := res.Body["question"].(map[string]any)
			if q["id"] != float64(tt.wantID) {
				t.Errorf("question id = %v, want %d", q["id"], tt.wantID)
			}
		})
	}
}

func TestQuiz_Errors(t *testing.T) {
	h := newTestHandler(t)

	assertError(t, do(t, h, http.MethodPost, "/quizzes",
		`{"previous_questions":[4,5],"quiz_category":{"id":2}}`), http.StatusBadRequest, "bad request")
	assertError(t, do(t, h, http.MethodPost, "/quizzes",
		`{"previous_questions":[],"quiz_category":{"id":77}}`), http.StatusNotFound, "resource not found")
	assertError(t, do(t, h, http.MethodPost, "/quizzes",
		`{"previous_questions":["one"]}`), http.StatusBadRequest, "bad request")
	assertError(t, do(t, h, http.MethodPost, "/quizzes", `not json`), http.StatusBadRequest, "bad request")
}

func TestExport(t *testing.T) {
	h := newTestHandler(t)

	jsonRes := do(t, h, http.MethodGet, "/questions/export", "")
	if jsonRes.Code != http.StatusOK {
		t.Fatalf("json status = %d", jsonRes.Code)
	}
	cats := jsonRes.Body["categories"].([]any)
	if len(cats) != 2 {
		t.Errorf("exported categories = %d, want 2", len(cats))
	}

	yamlRes := do(t, h, http.MethodGet, "/questions/export", "", "Accept", "application/yaml")
	if yamlRes.Code != http.StatusOK || yamlRes.Header.Get("Content-Type") != "application/yaml" {
		t.Fatalf("yaml export = %d %q", yamlRes.Code, yamlRes.Header.Get("Content-Type"))
	}
	if !strings.Contains(yamlRes.Raw, "type: History") {
		t.Errorf("yaml export missing History:\n%s", yamlRes.Raw)
	}

	xlsxRes := do(t, h, http.MethodGet, "/questions/export", "", "Accept",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if xlsxRes.Code != http.StatusOK {
		t.Fatalf("xlsx status = %d", xlsxRes.Code)
	}
	if !strings.Contains(xlsxRes.Header.Get("Content-Disposition"), "questions.xlsx") {
		t.Errorf("Content-Disposition = %q", xlsxRes.Header.Get("Content-Disposition"))
	}
	if !strings.HasPrefix(xlsxRes.Raw, "PK") {
		t.Error("xlsx export is not a zip archive")
	}

	assertError(t, do(t, h, http.MethodGet, "/questions/export", "", "Accept", "text/csv"),
		http.StatusNotAcceptable, "not acceptable")
}

func TestAdminAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	h := api.NewHandler(api.Config{
		Service: newTestService(t),
		Auth:    auth.New("test-secret", time.Hour, string(hash)),
	})

	// Reads stay public.
	if res := do(t, h, http.MethodGet, "/questions", ""); res.Code != http.StatusOK {
		t.Errorf("GET /questions = %d, want 200", res.Code)
	}

	assertError(t, do(t, h, http.MethodDelete, "/questions/1", ""), http.StatusUnauthorized, "unauthorized")
	assertError(t, do(t, h, http.MethodDelete, "/questions/1", "", "Authorization", "Bearer bogus"),
		http.StatusUnauthorized, "unauthorized")
	assertError(t, do(t, h, http.MethodPost, "/auth/token", `{"password":"wrong"}`),
		http.StatusUnauthorized, "unauthorized")

	tok := do(t, h, http.MethodPost, "/auth/token", `{"password":"hunter2"}`)
	if tok.Code != http.StatusOK {
		t.Fatalf("token status = %d (body %s)", tok.Code, tok.Raw)
	}
	token, _ := tok.Body["token"].(string)
	if token == "" {
		t.Fatal("token missing from response")
	}

	res := do(t, h, http.MethodDelete, "/questions/1", "", "Authorization", "Bearer "+token)
	if res.Code != http.StatusOK {
		t.Errorf("authorized DELETE = %d, want 200", res.Code)
	}
}

func TestTokenEndpoint_DisabledWithoutHash(t *testing.T) {
	assertError(t, do(t, newTestHandler(t), http.MethodPost, "/auth/token", `{"password":"x"}`),
		http.StatusNotFound, "resource not found")
}

type stubChecker struct{ err error }

func (s stubChecker) HealthCheck(context.Context) error { return s.err }

func TestHealthEndpoints(t *testing.T) {
	healthy := api.NewHandler(api.Config{
		Service:      newTestService(t),
		HealthChecks: map[string]api.HealthChecker{"database": stubChecker{}},
	})
	unhealthy := api.NewHandler(api.Config{
		Service: newTestService(t),
		HealthChecks: map[string]api.HealthChecker{
			"database": stubChecker{},
			"cache":    stubChecker{err: errors.New("connection refused")},
		},
	})

	tests := []struct {
		name       string
		h          http.Handler
		path       string
		wantStatus int
		wantBody   string
	}{
		{"healthz returns 200", healthy, "/healthz", http.StatusOK, `{"status":"ok"}`},
		{"readyz returns 200", healthy, "/readyz", http.StatusOK, `{"status":"ready"}`},
		{"readyz reports failed dependency", unhealthy, "/readyz", http.StatusServiceUnavailable, `{"status":"unavailable","failed":"cache"}` + "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := do(t, tt.h, http.MethodGet, tt.path, "")
			if res.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", res.Code, tt.wantStatus)
			}
			if res.Raw != tt.wantBody {
				t.Errorf("body = %q, want %q", res.Raw, tt.wantBody)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodOptions, "/questions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, http.MethodPost) {
		t.Errorf("Access-Control-Allow-Methods = %q, want POST", got)
	}
}

func TestRequestID(t *testing.T) {
	h := newTestHandler(t)

	res := do(t, h, http.MethodGet, "/categories", "", "X-Request-ID", "abc-123")
	if got := res.Header.Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want abc-123", got)
	}

	generated := do(t, h, http.MethodGet, "/categories", "")
	if generated.Header.Get("X-Request-ID") == "" {
		t.Error("X-Request-ID should be generated when absent")
	}
}
