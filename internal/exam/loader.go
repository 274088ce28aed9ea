package exam

import (
	"context"
	"sort"

	"github.com/55onurisik/lmsmobile/internal/api"
	"github.com/55onurisik/lmsmobile/internal/model"
)

// LoadExam fetches an exam's metadata and its questions ordered by question
// number. The fetch is read-only and safe to repeat; on failure nothing is
// returned so previously loaded state stays intact. A missing exam surfaces
// as an *api.Error with KindNotFound, anything else as the normalized load
// error.
func LoadExam(ctx context.Context, client *api.Client, examID int64) (model.Exam, []model.Question, error) {
	exam, questions, err := client.ExamQuestions(ctx, examID)
	if err != nil {
		return model.Exam{}, nil, err
	}
	sort.Slice(questions, func(i, j int) bool {
		return questions[i].Number < questions[j].Number
	})
	return exam, questions, nil
}
