package exam

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/55onurisik/lmsmobile/internal/api"
)

// ErrSubmissionInFlight is returned when Submit is called while a previous
// submission has not finished yet.
var ErrSubmissionInFlight = errors.New("submission already in flight")

// IncompleteError reports a strict-policy refusal. Numbers lists the
// unanswered question numbers; no network call was made.
type IncompleteError struct {
	Numbers []int
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("unanswered questions: %v", e.Numbers)
}

// Submitter posts a completed answer sheet exactly once per attempt. It
// allows at most one in-flight submission and never retries on its own;
// a failed attempt must be re-triggered by the user.
type Submitter struct {
	client *api.Client

	mu   sync.Mutex
	busy bool
}

// NewSubmitter wraps the gateway client.
func NewSubmitter(client *api.Client) *Submitter {
	return &Submitter{client: client}
}

// Submit validates the sheet against its policy and posts it. Under the
// strict policy an incomplete sheet is refused locally with an
// *IncompleteError. A 2xx response whose envelope reports an error is a
// failure carrying the server's message.
func (s *Submitter) Submit(ctx context.Context, sheet *AnswerSheet) error {
	if sheet.Policy() == PolicyStrict {
		if missing := sheet.Unanswered(); len(missing) > 0 {
			numbers := make([]int, len(missing))
			for i, q := range missing {
				numbers[i] = q.Number
			}
			return &IncompleteError{Numbers: numbers}
		}
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrSubmissionInFlight
	}
	s.busy = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	slog.Info("submitting answers", "exam_id", sheet.ExamID(), "answers", len(sheet.Payload()))
	return s.client.SubmitAnswers(ctx, sheet.ExamID(), sheet.Payload())
}
