package exam

import (
	"fmt"
	"sort"
	"strings"

	"github.com/55onurisik/lmsmobile/internal/model"
)

// Choice is one of the fixed answer options, or Blank for an intentionally
// unanswered question.
type Choice string

const (
	ChoiceA Choice = "A"
	ChoiceB Choice = "B"
	ChoiceC Choice = "C"
	ChoiceD Choice = "D"
	ChoiceE Choice = "E"
	Blank   Choice = ""
)

// ParseChoice reads a user-entered option. Letters are case-insensitive;
// an empty string or "-" means blank.
func ParseChoice(s string) (Choice, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return Blank, nil
	}
	c := Choice(strings.ToUpper(s))
	switch c {
	case ChoiceA, ChoiceB, ChoiceC, ChoiceD, ChoiceE:
		return c, nil
	}
	return Blank, fmt.Errorf("invalid choice %q", s)
}

// Policy decides how unanswered questions are treated at submission time.
type Policy int

const (
	// PolicyStrict refuses submission until every question has a recorded
	// entry (an explicit Blank counts as an entry). This is the default.
	PolicyStrict Policy = iota
	// PolicyAllowBlank treats missing entries as intentional blanks and
	// substitutes null on the wire instead of refusing.
	PolicyAllowBlank
)

// AnswerSheet holds the in-progress answer selections for one exam. It is
// pure view state: created when the exam flow starts, discarded after a
// successful submission. Last write per question wins.
type AnswerSheet struct {
	examID     int64
	questions  []model.Question
	policy     Policy
	selections map[int64]Choice
}

// NewAnswerSheet creates an empty sheet for the given question set.
func NewAnswerSheet(examID int64, questions []model.Question, policy Policy) *AnswerSheet {
	return &AnswerSheet{
		examID:     examID,
		questions:  questions,
		policy:     policy,
		selections: make(map[int64]Choice, len(questions)),
	}
}

// ExamID returns the exam this sheet belongs to.
func (s *AnswerSheet) ExamID() int64 { return s.examID }

// Questions returns the ordered question set the sheet was created for.
func (s *AnswerSheet) Questions() []model.Question { return s.questions }

// Policy returns the completeness policy in effect.
func (s *AnswerSheet) Policy() Policy { return s.policy }

// Record stores the selection for a question, overwriting any prior one.
// Recording Blank is an explicit "no answer" and counts as answered.
func (s *AnswerSheet) Record(questionID int64, c Choice) error {
	if !s.hasQuestion(questionID) {
		return fmt.Errorf("question %d is not part of exam %d", questionID, s.examID)
	}
	s.selections[questionID] = c
	return nil
}

// Selection returns the recorded choice for a question and whether one exists.
func (s *AnswerSheet) Selection(questionID int64) (Choice, bool) {
	c, ok := s.selections[questionID]
	return c, ok
}

// Unanswered returns the questions without a recorded entry, in question
// number order.
func (s *AnswerSheet) Unanswered() []model.Question {
	var missing []model.Question
	for _, q := range s.questions {
		if _, ok := s.selections[q.ID]; !ok {
			missing = append(missing, q)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i].Number < missing[j].Number })
	return missing
}

// Complete reports whether every question has a recorded entry.
func (s *AnswerSheet) Complete() bool {
	return len(s.Unanswered()) == 0
}

// Payload builds the wire representation: question id to uppercased option
// letter, with null for blanks. Under PolicyAllowBlank, questions never
// touched are included as null as well.
func (s *AnswerSheet) Payload() map[int64]*string {
	out := make(map[int64]*string, len(s.questions))
	for _, q := range s.questions {
		c, ok := s.selections[q.ID]
		if !ok {
			if s.policy == PolicyAllowBlank {
				out[q.ID] = nil
			}
			continue
		}
		if c == Blank {
			out[q.ID] = nil
			continue
		}
		letter := strings.ToUpper(string(c))
		out[q.ID] = &letter
	}
	return out
}

func (s *AnswerSheet) hasQuestion(id int64) bool {
	for _, q := range s.questions {
		if q.ID == id {
			return true
		}
	}
	return false
}
