package exam

import (
	"context"
	"testing"

	"github.com/55onurisik/lmsmobile/internal/model"
)

func TestLoadDashboard(t *testing.T) {
	srv, client := newTestEnv(t)
	srv.Student = model.Student{ID: 7, Name: "Ayşe", ClassLevel: 12}
	srv.Exams = []model.ExamSummary{{ID: 10, Title: "TYT Deneme 1", Code: "TYT-1"}}

	d, err := LoadDashboard(context.Background(), client)
	if err != nil {
		t.Fatalf("LoadDashboard: %v", err)
	}
	if d.Student.Name != "Ayşe" {
		t.Errorf("expected student Ayşe, got %q", d.Student.Name)
	}
	if len(d.Exams) != 1 || d.Exams[0].Code != "TYT-1" {
		t.Errorf("unexpected exams: %+v", d.Exams)
	}
}

func TestProbeCompletion(t *testing.T) {
	srv, client := newTestEnv(t)
	srv.ExamMeta[11] = model.Exam{ID: 11}
	srv.ExamMeta[12] = model.Exam{ID: 12}
	srv.Questions[11] = []model.Question{{ID: 1, Number: 1}}
	srv.Questions[12] = []model.Question{{ID: 2, Number: 1}}
	srv.Submitted[11] = true

	exams := []model.ExamSummary{
		{ID: 10, Completed: true},
		{ID: 11},
		{ID: 12},
		{ID: 13},
	}

	got := ProbeCompletion(context.Background(), client, exams, 2)
	if !got[0].Completed {
		t.Error("exam 10 was already completed and must stay so")
	}
	if !got[1].Completed {
		t.Error("exam 11 answers are forbidden, expected completed annotation")
	}
	if got[2].Completed {
		t.Error("exam 12 is still open, must not be annotated")
	}
	// Exam 13 probes as not found; the annotation stays untouched.
	if got[3].Completed {
		t.Error("failed probe must leave exam 13 unannotated")
	}

	// The input slice is never mutated.
	if exams[1].Completed {
		t.Error("ProbeCompletion must work on a copy")
	}
}

func TestStatisticsFor(t *testing.T) {
	stats := []model.ExamStatistic{
		{ExamID: 1, ExamCode: "TYT-1"},
		{ExamID: 2, ExamCode: "AYT-1", Topics: []model.TopicStat{{TopicName: "Limit", Correct: 3}}},
	}

	s, ok := StatisticsFor(stats, 2)
	if !ok || s.ExamCode != "AYT-1" {
		t.Fatalf("expected AYT-1, got %+v (ok=%v)", s, ok)
	}
	if !s.Solved() {
		t.Error("expected exam 2 solved")
	}
	if stats[0].Solved() {
		t.Error("expected exam 1 unsolved")
	}
	if _, ok := StatisticsFor(stats, 99); ok {
		t.Error("expected no statistic for unknown exam")
	}
}
