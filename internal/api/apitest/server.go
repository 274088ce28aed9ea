// Package apitest provides an in-process fake of the student REST backend
// for exercising the client against the real wire contract.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/55onurisik/lmsmobile/internal/model"
)

// Submission records one POST to the submit endpoint.
type Submission struct {
	ExamID  int64
	Answers map[int64]*string
}

// Server is a configurable fake backend. Fields may be mutated between
// requests under Lock/Unlock to simulate server-side changes such as a
// teacher flipping review visibility.
type Server struct {
	URL string

	mu sync.Mutex
	hs *httptest.Server

	// Token, when set, is the only accepted bearer token; other requests
	// get a 401.
	Token   string
	Student model.Student

	Exams     []model.ExamSummary
	ExamMeta  map[int64]model.Exam
	Questions map[int64][]model.Question
	// Submitted marks exams whose answer endpoint now returns 403.
	Submitted map[int64]bool
	Reviews   map[int64][]model.GradedAnswer
	Stats     []model.ExamStatistic

	// SubmitStatus is the envelope status returned by the submit endpoint
	// ("success" by default).
	SubmitStatus  string
	SubmitMessage string
	SubmitDelay   time.Duration
	Submissions   []Submission

	ChatMessages []model.ChatMessage
	ChatFail     bool
	nextChatID   int64

	// LastBroadcast records the broadcast query parameter of the most
	// recent review request.
	LastBroadcast string
	ReviewCalls   int
}

// New starts the fake backend. Close is registered on cleanup by the caller.
func New() *Server {
	s := &Server{
		ExamMeta:     map[int64]model.Exam{},
		Questions:    map[int64][]model.Question{},
		Submitted:    map[int64]bool{},
		Reviews:      map[int64][]model.GradedAnswer{},
		SubmitStatus: "success",
		nextChatID:   1000,
	}

	r := chi.NewRouter()
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.authed(s.handleOK))
	r.Get("/user", s.authed(s.handleUser))
	r.Get("/dashboard", s.authed(s.handleDashboard))
	r.Get("/exams", s.authed(s.handleExams))
	r.Get("/statistics", s.authed(s.handleStatistics))
	r.Get("/exams/{examID}/answer", s.authed(s.handleAnswer))
	r.Post("/exams/{examID}/submit", s.authed(s.handleSubmit))
	r.Get("/exams/{examID}/review", s.authed(s.handleReview))
	r.Get("/chat", s.authed(s.handleChat))
	r.Post("/chat/send", s.authed(s.handleChatSend))

	s.hs = httptest.NewServer(r)
	s.URL = s.hs.URL
	return s
}

// Close shuts the fake backend down.
func (s *Server) Close() { s.hs.Close() }

// Lock takes the fixture mutex for cross-request mutation.
func (s *Server) Lock() { s.mu.Lock() }

// Unlock releases the fixture mutex.
func (s *Server) Unlock() { s.mu.Unlock() }

func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		token := s.Token
		s.mu.Unlock()
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Unauthenticated."})
			return
		}
		next(w, r)
	}
}

func (s *Server) handleOK(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&creds)
	s.mu.Lock()
	defer s.mu.Unlock()
	if creds.Email == "" || creds.Password == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"message": "The given data was invalid.",
			"errors":  map[string][]string{"email": {"The email field is required."}},
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{"student": s.Student, "token": s.Token},
	})
}

func (s *Server) handleUser(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"user": s.Student})
}

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{"student": s.Student, "exams": s.Exams},
	})
}

func (s *Server) handleExams(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "exams": s.Exams})
}

func (s *Server) handleStatistics(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := s.Stats
	if stats == nil {
		stats = []model.ExamStatistic{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "statistics": stats})
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	id := examID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Submitted[id] {
		writeJSON(w, http.StatusForbidden, map[string]any{"message": "Exam already completed."})
		return
	}
	exam, ok := s.ExamMeta[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Exam not found."})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "success",
		"exam":      exam,
		"questions": s.Questions[id],
	})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ExamID  int64             `json:"exam_id"`
		Answers map[int64]*string `json:"answers"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	s.mu.Lock()
	delay := s.SubmitDelay
	s.mu.Unlock()
	time.Sleep(delay)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Submissions = append(s.Submissions, Submission{ExamID: examID(r), Answers: body.Answers})
	writeJSON(w, http.StatusOK, map[string]any{"status": s.SubmitStatus, "message": s.SubmitMessage})
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	id := examID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ReviewCalls++
	s.LastBroadcast = r.URL.Query().Get("broadcast")
	exam := s.ExamMeta[id]
	answers := s.Reviews[id]
	if answers == nil {
		answers = []model.GradedAnswer{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"exam": exam, "studentAnswers": answers})
}

func (s *Server) handleChat(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ChatFail {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "boom"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "messages": s.ChatMessages})
}

func (s *Server) handleChatSend(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message string `json:"message"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ChatFail {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "boom"})
		return
	}
	s.nextChatID++
	s.ChatMessages = append(s.ChatMessages, model.ChatMessage{
		ID:         s.nextChatID,
		SenderType: model.SenderStudent,
		Body:       body.Message,
	})
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": s.nextChatID})
}

func examID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, "examID"), 10, 64)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
