package assessment

import (
	"context"
	"strings"
	"time"

	"github.com/renemunyeshyaka/cybersecurity-aptitude-test/internal/catalog"
)

// Completion is everything CompleteSession writes in one atomic step: the
// terminal status transition, the score, the graded answers, and the
// participant's lifetime counter bump.
type Completion struct {
	TestID         string
	EndedAt        time.Time
	DurationSec    int
	Score          float64
	CategoryScores map[catalog.Category]*CategoryScore
	Answers        []GradedAnswer
}

// SessionFilter narrows admin session listings. Zero values mean "no filter".
type SessionFilter struct {
	Status    string
	StartDate time.Time
	EndDate   time.Time
}

// Store owns participant and session records for their full lifetime.
//
// CompleteSession is the concurrency-sensitive operation: the in_progress ->
// completed transition must be an atomic check-and-set so that of any number
// of concurrent submissions for the same test, exactly one wins and the rest
// fail with an already_completed error.
type Store interface {
	GetOrCreateParticipant(ctx context.Context, email, fullName, institution string) (Participant, error)
	GetParticipant(ctx context.Context, id string) (Participant, error)
	ListParticipants(ctx context.Context) ([]Participant, error)

	CreateSession(ctx context.Context, participantID string, questionIDs []string, startedAt time.Time) (Session, error)
	GetSession(ctx context.Context, testID string) (Session, error)
	CompleteSession(ctx context.Context, c Completion) (Session, error)
	SessionAnswers(ctx context.Context, testID string) ([]GradedAnswer, error)

	ListSessions(ctx context.Context, f SessionFilter) ([]SessionSummary, error)
	Stats(ctx context.Context) (DashboardStats, error)
}

// NormalizeEmail is the participant identity key: trimmed, lower-cased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
