package assessment

import "github.com/renemunyeshyaka/cybersecurity-aptitude-test/internal/catalog"

const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

type Participant struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	Institution  string `json:"institution,omitempty"`
	RegisteredAt int64  `json:"registered_at"`
	LastTestAt   int64  `json:"last_test_at,omitempty"`
	TestsTaken   int    `json:"tests_taken"`
}

// CategoryScore aggregates grading results for one category.
type CategoryScore struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
	Points  int `json:"points"`
}

// Session is one test attempt by one participant. Score, CategoryScores,
// EndedAt and DurationSec are set if and only if Status is completed.
type Session struct {
	ID             string                              `json:"id"`
	ParticipantID  string                              `json:"participant_id"`
	Status         string                              `json:"status"`
	QuestionIDs    []string                            `json:"question_ids"`
	StartedAt      int64                               `json:"started_at"`
	EndedAt        int64                               `json:"ended_at,omitempty"`
	DurationSec    int                                 `json:"duration_sec,omitempty"`
	Score          float64                             `json:"score"`
	CategoryScores map[catalog.Category]*CategoryScore `json:"category_scores,omitempty"`
}

// AnswerRecord is one submitted answer as it arrives from the client.
// SelectedOption is empty when the participant left the question blank.
type AnswerRecord struct {
	QuestionID     string `json:"questionId"`
	SelectedOption string `json:"selectedOption,omitempty"`
	TimeTakenSec   int    `json:"timeTaken"`
}

// GradedAnswer is an answer after grading, as persisted with the session.
// Category is carried along so bank-wide aggregates need no catalog join.
type GradedAnswer struct {
	TestID         string           `json:"test_id"`
	QuestionID     string           `json:"question_id"`
	Category       catalog.Category `json:"category"`
	SelectedOption string           `json:"selected_option,omitempty"`
	TimeTakenSec   int              `json:"time_taken_sec"`
	IsCorrect      bool             `json:"is_correct"`
}

// SessionSummary is a session joined with its participant's identity, for
// admin listings and exports.
type SessionSummary struct {
	Session
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
	Institution string `json:"institution,omitempty"`
}

// CategoryStat is a bank-wide aggregate over all graded answers in one
// category.
type CategoryStat struct {
	Category       catalog.Category `json:"category"`
	TotalQuestions int              `json:"totalQuestions"`
	CorrectAnswers int              `json:"correctAnswers"`
	Percentage     float64          `json:"percentage"`
}

type DashboardStats struct {
	TotalParticipants int            `json:"totalParticipants"`
	TotalTests        int            `json:"totalTests"`
	CompletedTests    int            `json:"completedTests"`
	AverageScore      float64        `json:"averageScore"`
	CategoryStats     []CategoryStat `json:"categoryStats"`
}
