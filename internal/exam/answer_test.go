package exam

import (
	"os"
	"testing"

	appI18n "github.com/55onurisik/lmsmobile/internal/i18n"
	"github.com/55onurisik/lmsmobile/internal/model"
)

func TestMain(m *testing.M) {
	if err := appI18n.Init("tr"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func testQuestions() []model.Question {
	return []model.Question{
		{ID: 101, Number: 1, Text: "Soru 1"},
		{ID: 102, Number: 2, Text: "Soru 2"},
		{ID: 103, Number: 3, Text: "Soru 3"},
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		in      string
		want    Choice
		wantErr bool
	}{
		{"A", ChoiceA, false},
		{"a", ChoiceA, false},
		{" e ", ChoiceE, false},
		{"", Blank, false},
		{"-", Blank, false},
		{"F", Blank, true},
		{"AB", Blank, true},
	}
	for _, tt := range tests {
		got, err := ParseChoice(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseChoice(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseChoice(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAnswerSheetRecord(t *testing.T) {
	sheet := NewAnswerSheet(5, testQuestions(), PolicyStrict)

	if err := sheet.Record(101, ChoiceB); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if c, ok := sheet.Selection(101); !ok || c != ChoiceB {
		t.Errorf("expected B recorded, got %q (ok=%v)", c, ok)
	}

	// Last write wins.
	if err := sheet.Record(101, ChoiceD); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if c, _ := sheet.Selection(101); c != ChoiceD {
		t.Errorf("expected D after overwrite, got %q", c)
	}

	if err := sheet.Record(999, ChoiceA); err == nil {
		t.Error("expected error for unknown question id")
	}
}

func TestAnswerSheetCompleteness(t *testing.T) {
	sheet := NewAnswerSheet(5, testQuestions(), PolicyStrict)

	if sheet.Complete() {
		t.Fatal("empty sheet must not be complete")
	}

	_ = sheet.Record(101, ChoiceA)
	_ = sheet.Record(103, Blank)

	missing := sheet.Unanswered()
	if len(missing) != 1 || missing[0].ID != 102 {
		t.Fatalf("expected question 102 unanswered, got %+v", missing)
	}

	// An explicit blank counts as answered.
	_ = sheet.Record(102, Blank)
	if !sheet.Complete() {
		t.Error("expected complete sheet after explicit blanks")
	}
}

func TestAnswerSheetPayloadStrict(t *testing.T) {
	sheet := NewAnswerSheet(5, testQuestions(), PolicyStrict)
	_ = sheet.Record(101, ChoiceC)
	_ = sheet.Record(102, Blank)

	p := sheet.Payload()
	if got := p[101]; got == nil || *got != "C" {
		t.Errorf("expected C for 101, got %v", got)
	}
	if got, ok := p[102]; !ok || got != nil {
		t.Errorf("expected explicit null for 102, got %v (present=%v)", got, ok)
	}
	if _, ok := p[103]; ok {
		t.Error("untouched question must be omitted under the strict policy")
	}
}

func TestAnswerSheetPayloadAllowBlank(t *testing.T) {
	sheet := NewAnswerSheet(5, testQuestions(), PolicyAllowBlank)
	_ = sheet.Record(101, ChoiceA)

	p := sheet.Payload()
	if len(p) != 3 {
		t.Fatalf("expected all questions present, got %d", len(p))
	}
	if got, ok := p[103]; !ok || got != nil {
		t.Errorf("untouched question must be null under allow-blank, got %v (present=%v)", got, ok)
	}
}
