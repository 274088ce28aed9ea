package exam

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/55onurisik/lmsmobile/internal/api"
	"github.com/55onurisik/lmsmobile/internal/model"
)

// ErrReviewNotVisible is returned by Expand when the teacher has not
// published the review for that answer yet.
var ErrReviewNotVisible = errors.New("review not visible yet")

// ReviewSession holds the graded answers for one exam plus the local
// expand state. Visibility is server-authoritative: an answer can only be
// expanded right after a fresh fetch confirmed review_visibility is true.
// The broadcast flag is a request parameter only; it never filters what is
// shown locally.
type ReviewSession struct {
	client    *api.Client
	examID    int64
	broadcast bool

	exam     model.Exam
	answers  []model.GradedAnswer
	expanded map[int64]bool
}

// NewReviewSession creates a session for the given exam.
func NewReviewSession(client *api.Client, examID int64, broadcast bool) *ReviewSession {
	return &ReviewSession{
		client:    client,
		examID:    examID,
		broadcast: broadcast,
		expanded:  make(map[int64]bool),
	}
}

// Load fetches the graded answers, sorts them ascending by answer id and
// resolves relative media references. Expanded state survives a reload only
// for answers whose refreshed record is still visible.
func (r *ReviewSession) Load(ctx context.Context) error {
	exam, answers, err := r.client.Review(ctx, r.examID, r.broadcast)
	if err != nil {
		return err
	}
	sort.Slice(answers, func(i, j int) bool {
		return answers[i].AnswerID < answers[j].AnswerID
	})
	for i := range answers {
		r.resolveMedia(&answers[i])
	}

	kept := make(map[int64]bool, len(r.expanded))
	for _, a := range answers {
		if r.expanded[a.AnswerID] && a.ReviewVisible {
			kept[a.AnswerID] = true
		}
	}

	r.exam = exam
	r.answers = answers
	r.expanded = kept
	return nil
}

// Exam returns the exam metadata from the last Load.
func (r *ReviewSession) Exam() model.Exam { return r.exam }

// Answers returns the graded answers sorted ascending by answer id.
func (r *ReviewSession) Answers() []model.GradedAnswer {
	out := make([]model.GradedAnswer, len(r.answers))
	copy(out, r.answers)
	return out
}

// Expanded reports whether the given answer's review is currently shown.
func (r *ReviewSession) Expanded(answerID int64) bool {
	return r.expanded[answerID]
}

// Expand re-fetches the review set and checks the answer's current
// visibility; a stale in-memory copy is never trusted. When visible, only
// that answer's record is replaced and it is marked expanded; every other
// answer's state is left unchanged. When not visible, ErrReviewNotVisible
// is returned and nothing changes.
func (r *ReviewSession) Expand(ctx context.Context, answerID int64) error {
	_, fresh, err := r.client.Review(ctx, r.examID, r.broadcast)
	if err != nil {
		return err
	}

	var found *model.GradedAnswer
	for i := range fresh {
		if fresh[i].AnswerID == answerID {
			found = &fresh[i]
			break
		}
	}
	if found == nil {
		return fmt.Errorf("answer %d not in review for exam %d", answerID, r.examID)
	}
	if !found.ReviewVisible {
		return ErrReviewNotVisible
	}

	r.resolveMedia(found)
	for i := range r.answers {
		if r.answers[i].AnswerID == answerID {
			r.answers[i] = *found
			r.expanded[answerID] = true
			return nil
		}
	}
	return fmt.Errorf("answer %d not loaded", answerID)
}

// Collapse hides an expanded review. Local only.
func (r *ReviewSession) Collapse(answerID int64) {
	delete(r.expanded, answerID)
}

func (r *ReviewSession) resolveMedia(a *model.GradedAnswer) {
	if a.ReviewMedia == nil || *a.ReviewMedia == "" {
		return
	}
	resolved := r.client.ResolveMediaURL(*a.ReviewMedia)
	a.ReviewMedia = &resolved
}
