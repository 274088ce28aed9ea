package exam

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/55onurisik/lmsmobile/internal/api"
	"github.com/55onurisik/lmsmobile/internal/model"
)

// Dashboard is the composite home view: the student profile plus the
// assigned exams with their completion state.
type Dashboard struct {
	Student model.Student
	Exams   []model.ExamSummary
}

// LoadDashboard fetches the profile and exam list in one call.
func LoadDashboard(ctx context.Context, client *api.Client) (Dashboard, error) {
	student, exams, err := client.Dashboard(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{Student: student, Exams: exams}, nil
}

// DefaultProbeLimit caps the completion-probe fan-out.
const DefaultProbeLimit = 4

// ProbeCompletion annotates exams not already marked completed by probing
// their answer endpoint: a forbidden response means the exam was already
// submitted. This is a best-effort heuristic, not authoritative state;
// probe failures of any other kind leave the annotation untouched. Probes
// run concurrently, capped at limit.
func ProbeCompletion(ctx context.Context, client *api.Client, exams []model.ExamSummary, limit int) []model.ExamSummary {
	if limit <= 0 {
		limit = DefaultProbeLimit
	}
	out := make([]model.ExamSummary, len(exams))
	copy(out, exams)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range out {
		if out[i].Completed {
			continue
		}
		i := i
		g.Go(func() error {
			_, _, err := client.ExamQuestions(ctx, out[i].ID)
			if api.IsKind(err, api.KindForbidden) {
				out[i].Completed = true
			} else if err != nil {
				slog.Debug("completion probe failed", "exam_id", out[i].ID, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// LoadStatistics fetches the per-exam topic statistics.
func LoadStatistics(ctx context.Context, client *api.Client) ([]model.ExamStatistic, error) {
	return client.Statistics(ctx)
}

// StatisticsFor picks the statistic for one exam out of the aggregate list.
func StatisticsFor(stats []model.ExamStatistic, examID int64) (model.ExamStatistic, bool) {
	for _, s := range stats {
		if s.ExamID == examID {
			return s, true
		}
	}
	return model.ExamStatistic{}, false
}
