package exam

import (
	"context"
	"errors"
	"testing"

	"github.com/55onurisik/lmsmobile/internal/api/apitest"
	"github.com/55onurisik/lmsmobile/internal/model"
)

func strptr(s string) *string { return &s }

func seedReview(srv *apitest.Server) {
	srv.ExamMeta[5] = model.Exam{ID: 5, Title: "TYT Deneme 1", Code: "TYT-1", QuestionCount: 3}
	srv.Reviews[5] = []model.GradedAnswer{
		{AnswerID: 3, StudentsAnswer: "", IsCorrect: model.Blank, ReviewVisible: true},
		{AnswerID: 1, StudentsAnswer: "A", IsCorrect: model.Correct, ReviewVisible: true,
			ReviewText: strptr("Güzel çözüm"), ReviewMedia: strptr("uploads/q1.png")},
		{AnswerID: 2, StudentsAnswer: "C", IsCorrect: model.Incorrect, ReviewVisible: false,
			ReviewText: strptr("Henüz gizli")},
	}
}

func TestReviewLoadSortsAndResolvesMedia(t *testing.T) {
	srv, client := newTestEnv(t)
	seedReview(srv)

	rs := NewReviewSession(client, 5, false)
	if err := rs.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	answers := rs.Answers()
	if len(answers) != 3 {
		t.Fatalf("expected 3 answers, got %d", len(answers))
	}
	for i, want := range []int64{1, 2, 3} {
		if answers[i].AnswerID != want {
			t.Fatalf("expected answer id %d at index %d, got %d", want, i, answers[i].AnswerID)
		}
	}

	if answers[0].ReviewMedia == nil || *answers[0].ReviewMedia != srv.URL+"/storage/uploads/q1.png" {
		t.Errorf("expected resolved media URL, got %v", answers[0].ReviewMedia)
	}

	// Tri-state correctness survives the round trip.
	if answers[2].IsCorrect != model.Blank {
		t.Errorf("expected blank correctness for answer 3, got %d", answers[2].IsCorrect)
	}

	srv.Lock()
	defer srv.Unlock()
	if srv.LastBroadcast != "no" {
		t.Errorf("expected broadcast=no, got %q", srv.LastBroadcast)
	}
}

func TestReviewBroadcastParam(t *testing.T) {
	srv, client := newTestEnv(t)
	seedReview(srv)

	rs := NewReviewSession(client, 5, true)
	if err := rs.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	srv.Lock()
	defer srv.Unlock()
	if srv.LastBroadcast != "yes" {
		t.Errorf("expected broadcast=yes, got %q", srv.LastBroadcast)
	}
	// The parameter is a request detail only: nothing gets filtered.
	if len(rs.Answers()) != 3 {
		t.Errorf("expected full answer set, got %d", len(rs.Answers()))
	}
}

func TestExpandRefusesHiddenReview(t *testing.T) {
	srv, client := newTestEnv(t)
	seedReview(srv)

	rs := NewReviewSession(client, 5, false)
	if err := rs.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := rs.Expand(context.Background(), 2); !errors.Is(err, ErrReviewNotVisible) {
		t.Fatalf("expected ErrReviewNotVisible, got %v", err)
	}
	if rs.Expanded(2) {
		t.Error("hidden answer must not be marked expanded")
	}
}

func TestExpandChecksFreshVisibility(t *testing.T) {
	srv, client := newTestEnv(t)
	seedReview(srv)

	rs := NewReviewSession(client, 5, false)
	if err := rs.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	// The teacher publishes the review after the initial load.
	srv.Lock()
	srv.Reviews[5][2].ReviewVisible = true
	srv.Reviews[5][2].ReviewText = strptr("Artık görünür")
	srv.Unlock()

	if err := rs.Expand(context.Background(), 2); err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if !rs.Expanded(2) {
		t.Fatal("expected answer 2 expanded")
	}

	answers := rs.Answers()
	if answers[1].ReviewText == nil || *answers[1].ReviewText != "Artık görünür" {
		t.Errorf("expected refreshed review text, got %v", answers[1].ReviewText)
	}
	// Only the expanded record is replaced.
	if answers[0].ReviewText == nil || *answers[0].ReviewText != "Güzel çözüm" {
		t.Errorf("expected answer 1 untouched, got %v", answers[0].ReviewText)
	}
	if rs.Expanded(1) || rs.Expanded(3) {
		t.Error("expanding one answer must not expand others")
	}
}

func TestExpandUnknownAnswer(t *testing.T) {
	srv, client := newTestEnv(t)
	seedReview(srv)

	rs := NewReviewSession(client, 5, false)
	if err := rs.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := rs.Expand(context.Background(), 99); err == nil {
		t.Fatal("expected error for unknown answer id")
	}
}

func TestReloadDropsStaleExpansion(t *testing.T) {
	srv, client := newTestEnv(t)
	seedReview(srv)

	rs := NewReviewSession(client, 5, false)
	if err := rs.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := rs.Expand(context.Background(), 1); err != nil {
		t.Fatalf("Expand: %v", err)
	}

	// The teacher withdraws the review; a reload must collapse it.
	srv.Lock()
	srv.Reviews[5][1].ReviewVisible = false
	srv.Unlock()

	if err := rs.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rs.Expanded(1) {
		t.Error("expected stale expansion dropped after reload")
	}
}

func TestCollapseIsLocal(t *testing.T) {
	srv, client := newTestEnv(t)
	seedReview(srv)

	rs := NewReviewSession(client, 5, false)
	if err := rs.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := rs.Expand(context.Background(), 1); err != nil {
		t.Fatalf("Expand: %v", err)
	}

	srv.Lock()
	calls := srv.ReviewCalls
	srv.Unlock()

	rs.Collapse(1)
	if rs.Expanded(1) {
		t.Error("expected answer 1 collapsed")
	}

	srv.Lock()
	defer srv.Unlock()
	if srv.ReviewCalls != calls {
		t.Error("collapse must not hit the network")
	}
}
