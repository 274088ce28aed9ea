package exam

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/55onurisik/lmsmobile/internal/api"
	"github.com/55onurisik/lmsmobile/internal/api/apitest"
	"github.com/55onurisik/lmsmobile/internal/model"
)

func newTestEnv(t *testing.T) (*apitest.Server, *api.Client) {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)
	c, err := api.New(api.Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("api.New: %v", err)
	}
	return srv, c
}

func TestSubmitStrictRefusesIncomplete(t *testing.T) {
	srv, client := newTestEnv(t)

	sheet := NewAnswerSheet(5, testQuestions(), PolicyStrict)
	_ = sheet.Record(102, ChoiceA)

	err := NewSubmitter(client).Submit(context.Background(), sheet)
	var incomplete *IncompleteError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompleteError, got %v", err)
	}
	if len(incomplete.Numbers) != 2 || incomplete.Numbers[0] != 1 || incomplete.Numbers[1] != 3 {
		t.Errorf("expected unanswered numbers [1 3], got %v", incomplete.Numbers)
	}

	// The refusal is local.
	srv.Lock()
	defer srv.Unlock()
	if len(srv.Submissions) != 0 {
		t.Errorf("expected no network call, got %d submissions", len(srv.Submissions))
	}
}

func TestSubmitComplete(t *testing.T) {
	srv, client := newTestEnv(t)

	sheet := NewAnswerSheet(5, testQuestions(), PolicyStrict)
	_ = sheet.Record(101, ChoiceA)
	_ = sheet.Record(102, Blank)
	_ = sheet.Record(103, ChoiceE)

	if err := NewSubmitter(client).Submit(context.Background(), sheet); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	srv.Lock()
	defer srv.Unlock()
	if len(srv.Submissions) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(srv.Submissions))
	}
	sub := srv.Submissions[0]
	if sub.ExamID != 5 {
		t.Errorf("expected exam id 5, got %d", sub.ExamID)
	}
	if got := sub.Answers[101]; got == nil || *got != "A" {
		t.Errorf("expected A for 101, got %v", got)
	}
	if got, ok := sub.Answers[102]; !ok || got != nil {
		t.Errorf("expected null for 102, got %v (present=%v)", got, ok)
	}
}

func TestSubmitAllowBlankSkipsRefusal(t *testing.T) {
	srv, client := newTestEnv(t)

	sheet := NewAnswerSheet(5, testQuestions(), PolicyAllowBlank)
	_ = sheet.Record(101, ChoiceB)

	if err := NewSubmitter(client).Submit(context.Background(), sheet); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	srv.Lock()
	defer srv.Unlock()
	if len(srv.Submissions) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(srv.Submissions))
	}
	if got, ok := srv.Submissions[0].Answers[103]; !ok || got != nil {
		t.Errorf("expected untouched question sent as null, got %v (present=%v)", got, ok)
	}
}

func TestSubmitEnvelopeFailure(t *testing.T) {
	srv, client := newTestEnv(t)
	srv.SubmitStatus = "error"
	srv.SubmitMessage = "Sınav süresi doldu"

	sheet := NewAnswerSheet(5, testQuestions(), PolicyAllowBlank)
	err := NewSubmitter(client).Submit(context.Background(), sheet)
	if err == nil || err.Error() != "Sınav süresi doldu" {
		t.Fatalf("expected envelope failure, got %v", err)
	}
}

func TestSubmitSingleFlight(t *testing.T) {
	srv, client := newTestEnv(t)
	srv.SubmitDelay = 300 * time.Millisecond

	sheet := NewAnswerSheet(5, testQuestions(), PolicyAllowBlank)
	sub := NewSubmitter(client)

	done := make(chan error, 1)
	go func() {
		done <- sub.Submit(context.Background(), sheet)
	}()

	time.Sleep(100 * time.Millisecond)
	if err := sub.Submit(context.Background(), sheet); !errors.Is(err, ErrSubmissionInFlight) {
		t.Fatalf("expected ErrSubmissionInFlight, got %v", err)
	}

	if err := <-done; err != nil {
		t.Fatalf("first submission failed: %v", err)
	}

	// A finished attempt releases the slot.
	if err := sub.Submit(context.Background(), sheet); err != nil {
		t.Fatalf("expected follow-up submission to run, got %v", err)
	}
}

func TestLoadExamOrdersQuestions(t *testing.T) {
	srv, client := newTestEnv(t)
	srv.ExamMeta[5] = model.Exam{ID: 5, Title: "AYT Deneme", Code: "AYT-2", QuestionCount: 3}
	srv.Questions[5] = []model.Question{
		{ID: 103, Number: 3},
		{ID: 101, Number: 1},
		{ID: 102, Number: 2},
	}

	ex, questions, err := LoadExam(context.Background(), client, 5)
	if err != nil {
		t.Fatalf("LoadExam: %v", err)
	}
	if ex.Code != "AYT-2" {
		t.Errorf("expected exam AYT-2, got %q", ex.Code)
	}
	for i, want := range []int{1, 2, 3} {
		if questions[i].Number != want {
			t.Fatalf("expected question number %d at index %d, got %d", want, i, questions[i].Number)
		}
	}
}

func TestLoadExamNotFound(t *testing.T) {
	_, client := newTestEnv(t)

	_, _, err := LoadExam(context.Background(), client, 404)
	if !api.IsKind(err, api.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
