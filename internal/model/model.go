package model

import "time"

// Exam is a named, coded set of ordered questions assigned to a student.
// Fetched from the backend, never mutated locally.
type Exam struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Code          string `json:"code"`
	QuestionCount int    `json:"question_count"`
}

// ExamSummary is a dashboard/list row for an assigned exam. Completed comes
// either from the server or from a best-effort completion probe.
type ExamSummary struct {
	ID            int64  `json:"id"`
	Title         string `json:"exam_title"`
	Code          string `json:"exam_code"`
	QuestionCount int    `json:"question_count"`
	Completed     bool   `json:"is_completed"`
}

// Question belongs to exactly one exam and is displayed in question_number order.
type Question struct {
	ID     int64  `json:"id"`
	Number int    `json:"question_number"`
	Text   string `json:"question_text"`
}

// Student is the authenticated student's profile.
type Student struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	ClassLevel   int    `json:"class_level"`
	ScheduleDay  string `json:"schedule_day"`
	ScheduleTime string `json:"schedule_time"`
}

// Correctness classifies a graded answer. The backend encodes it as an
// integer; the blank state is distinct from incorrect and must never be
// collapsed into a boolean.
type Correctness int

const (
	Incorrect Correctness = 0
	Correct   Correctness = 1
	Blank     Correctness = 2
)

// MessageID returns the i18n message identifier for the status label.
func (c Correctness) MessageID() string {
	switch c {
	case Correct:
		return "StatusCorrect"
	case Blank:
		return "StatusBlank"
	default:
		return "StatusIncorrect"
	}
}

// GradedAnswer is one reviewed answer as returned by the review endpoint.
// ReviewText and ReviewMedia are nullable; ReviewVisible is authoritative
// from the server and re-checked on every expand attempt.
type GradedAnswer struct {
	AnswerID       int64       `json:"answer_id"`
	StudentsAnswer string      `json:"students_answer"`
	IsCorrect      Correctness `json:"is_correct"`
	ReviewText     *string     `json:"review_text"`
	ReviewMedia    *string     `json:"review_media"`
	ReviewVisible  bool        `json:"review_visibility"`
}

// TopicStat holds per-topic counts for a solved exam.
type TopicStat struct {
	TopicName  string `json:"topic_name"`
	Correct    int    `json:"correct"`
	Incorrect  int    `json:"incorrect"`
	Unanswered int    `json:"unanswered"`
}

// ExamStatistic aggregates topic stats for one exam.
type ExamStatistic struct {
	ExamID   int64       `json:"exam_id"`
	ExamCode string      `json:"exam_code"`
	Topics   []TopicStat `json:"topics"`
}

// Totals sums the topic counts.
func (s ExamStatistic) Totals() (correct, incorrect, unanswered int) {
	for _, t := range s.Topics {
		correct += t.Correct
		incorrect += t.Incorrect
		unanswered += t.Unanswered
	}
	return correct, incorrect, unanswered
}

// Solved reports whether the exam has any recorded results.
func (s ExamStatistic) Solved() bool {
	c, i, u := s.Totals()
	return c+i+u > 0
}

// ChatMessage is one message in the student/teacher chat. Pending marks a
// locally inserted message awaiting server confirmation; it is never set on
// records coming from the backend.
type ChatMessage struct {
	ID         int64     `json:"id"`
	SenderID   int64     `json:"sender_id"`
	SenderType string    `json:"sender_type"`
	Body       string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
	Pending    bool      `json:"-"`
}

const (
	// SenderStudent and SenderTeacher are the polymorphic sender types the
	// backend uses for chat records.
	SenderStudent = "App\\Models\\Student"
	SenderTeacher = "App\\Models\\User"
)

// Mine reports whether the message was sent by the given student.
func (m ChatMessage) Mine(studentID int64) bool {
	return m.SenderType == SenderStudent && m.SenderID == studentID
}
