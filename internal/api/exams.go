package api

import (
	"context"
	"fmt"
	"net/url"

	appI18n "github.com/55onurisik/lmsmobile/internal/i18n"
	"github.com/55onurisik/lmsmobile/internal/model"
)

type examQuestionsResponse struct {
	Status    string           `json:"status"`
	Message   string           `json:"message"`
	Exam      *model.Exam      `json:"exam"`
	Questions []model.Question `json:"questions"`
}

// ExamQuestions fetches one exam's metadata and question set for answering.
// A 200 body whose status is not "success" is a failure carrying the
// server's message.
func (c *Client) ExamQuestions(ctx context.Context, examID int64) (model.Exam, []model.Question, error) {
	var res examQuestionsResponse
	if err := c.get(ctx, fmt.Sprintf("/exams/%d/answer", examID), nil, &res); err != nil {
		return model.Exam{}, nil, err
	}
	if res.Status != "success" {
		msg := res.Message
		if msg == "" {
			msg = appI18n.T(ctx, "ErrQuestionsLoad")
		}
		return model.Exam{}, nil, &Error{Kind: KindUnknown, Message: msg}
	}
	if res.Exam == nil || res.Questions == nil {
		return model.Exam{}, nil, &Error{Kind: KindUnknown, Message: appI18n.T(ctx, "ErrExamDataMissing")}
	}
	return *res.Exam, res.Questions, nil
}

type submitResponse struct {
	Status  string `json:"status"`
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// SubmitAnswers posts the complete answer set for an exam. Values are
// uppercased option letters; nil marks an intentionally blank answer.
// A 2xx response whose envelope reports an error is still a failure:
// transport success alone is not sufficient.
func (c *Client) SubmitAnswers(ctx context.Context, examID int64, answers map[int64]*string) error {
	body := struct {
		ExamID  int64             `json:"exam_id"`
		Answers map[int64]*string `json:"answers"`
	}{ExamID: examID, Answers: answers}

	var res submitResponse
	if err := c.post(ctx, fmt.Sprintf("/exams/%d/submit", examID), body, &res); err != nil {
		return err
	}
	if res.Status == "error" || (res.Success != nil && !*res.Success) {
		msg := res.Message
		if msg == "" {
			msg = appI18n.T(ctx, "ErrSubmitFailed")
		}
		return &Error{Kind: KindUnknown, Message: msg}
	}
	return nil
}

type reviewResponse struct {
	Exam           *model.Exam          `json:"exam"`
	StudentAnswers []model.GradedAnswer `json:"studentAnswers"`
}

// Review fetches the graded answers for an exam. The broadcast flag is
// passed through verbatim as a query parameter; per-answer visibility stays
// authoritative via review_visibility.
func (c *Client) Review(ctx context.Context, examID int64, broadcast bool) (model.Exam, []model.GradedAnswer, error) {
	q := url.Values{}
	if broadcast {
		q.Set("broadcast", "yes")
	} else {
		q.Set("broadcast", "no")
	}
	var res reviewResponse
	if err := c.get(ctx, fmt.Sprintf("/exams/%d/review", examID), q, &res); err != nil {
		return model.Exam{}, nil, err
	}
	var exam model.Exam
	if res.Exam != nil {
		exam = *res.Exam
	}
	return exam, res.StudentAnswers, nil
}

type examsResponse struct {
	Success bool                `json:"success"`
	Exams   []model.ExamSummary `json:"exams"`
}

// Exams lists the exams assigned to the student.
func (c *Client) Exams(ctx context.Context) ([]model.ExamSummary, error) {
	var res examsResponse
	if err := c.get(ctx, "/exams", nil, &res); err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, &Error{Kind: KindUnknown, Message: appI18n.T(ctx, "ErrExamsLoad")}
	}
	return res.Exams, nil
}

type dashboardResponse struct {
	Data struct {
		Student model.Student       `json:"student"`
		Exams   []model.ExamSummary `json:"exams"`
	} `json:"data"`
}

// Dashboard fetches the student profile and assigned exams in one call.
func (c *Client) Dashboard(ctx context.Context) (model.Student, []model.ExamSummary, error) {
	var res dashboardResponse
	if err := c.get(ctx, "/dashboard", nil, &res); err != nil {
		return model.Student{}, nil, err
	}
	return res.Data.Student, res.Data.Exams, nil
}

type statisticsResponse struct {
	Success    bool                  `json:"success"`
	Statistics []model.ExamStatistic `json:"statistics"`
}

// Statistics fetches per-exam topic statistics.
func (c *Client) Statistics(ctx context.Context) ([]model.ExamStatistic, error) {
	var res statisticsResponse
	if err := c.get(ctx, "/statistics", nil, &res); err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, &Error{Kind: KindUnknown, Message: appI18n.T(ctx, "ErrStatsLoad")}
	}
	return res.Statistics, nil
}
