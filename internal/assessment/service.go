package assessment

import (
	"context"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/renemunyeshyaka/cybersecurity-aptitude-test/internal/catalog"
)

const (
	DefaultPerCategory    = 5
	DefaultMaxDurationSec = 1800
)

// EventSink receives audit events. Append failures are logged, never
// surfaced: the audit trail is best-effort and must not fail a submission.
type EventSink interface {
	Append(ctx context.Context, typ, key string, payload any) error
}

type Options struct {
	PerCategory    int
	MaxDurationSec int
}

// Service composes the catalog, the store and the scorer into the start and
// submit operations. It is the only component with cross-cutting policy:
// timing, idempotency, and the advisory max duration.
type Service struct {
	store   Store
	catalog *catalog.Catalog
	events  EventSink
	opts    Options
	now     func() time.Time
}

func NewService(store Store, cat *catalog.Catalog, opts Options, events EventSink) *Service {
	if opts.PerCategory <= 0 {
		opts.PerCategory = DefaultPerCategory
	}
	if opts.MaxDurationSec <= 0 {
		opts.MaxDurationSec = DefaultMaxDurationSec
	}
	return &Service{store: store, catalog: cat, events: events, opts: opts, now: time.Now}
}

type StartRequest struct {
	Email       string `json:"email"`
	FullName    string `json:"fullName"`
	Institution string `json:"institution,omitempty"`
}

type StartResponse struct {
	Message        string                   `json:"message"`
	TestID         string                   `json:"testId"`
	ParticipantID  string                   `json:"participantId"`
	Questions      []catalog.PublicQuestion `json:"questions"`
	MaxDuration    int                      `json:"maxDuration"`
	TotalQuestions int                      `json:"totalQuestions"`
}

type SubmitRequest struct {
	TestID  string         `json:"testId"`
	Answers []AnswerRecord `json:"answers"`
}

type SubmitResponse struct {
	Message        string                              `json:"message"`
	Score          float64                             `json:"score"`
	TotalQuestions int                                 `json:"totalQuestions"`
	CorrectAnswers int                                 `json:"correctAnswers"`
	CategoryScores map[catalog.Category]*CategoryScore `json:"categoryScores"`
	Duration       int                                 `json:"duration"`
}

// AnswerDetail is a stored answer resolved against the catalog for the admin
// detail view. The full question view is safe here: the session is over.
type AnswerDetail struct {
	GradedAnswer
	QuestionText  string            `json:"question_text"`
	Options       map[string]string `json:"options"`
	CorrectAnswer string            `json:"correct_answer"`
	Explanation   string            `json:"explanation,omitempty"`
	Points        int               `json:"points"`
}

type TestDetail struct {
	Test        SessionSummary `json:"test"`
	Participant Participant    `json:"participant"`
	Answers     []AnswerDetail `json:"answers"`
}

// StartTest registers (or recognizes) the participant, draws a fresh
// stratified question set, and opens a new in-progress session. Each call
// yields a new session; concurrent duplicate starts are not deduplicated.
func (s *Service) StartTest(ctx context.Context, req StartRequest) (StartResponse, error) {
	email := NormalizeEmail(req.Email)
	if email == "" {
		return StartResponse{}, NewValidationError("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return StartResponse{}, NewValidationError("email is not valid")
	}
	p, err := s.store.GetOrCreateParticipant(ctx, email, strings.TrimSpace(req.FullName), strings.TrimSpace(req.Institution))
	if err != nil {
		return StartResponse{}, err
	}

	public := s.catalog.SamplePublic(catalog.Categories, s.opts.PerCategory)
	ids := make([]string, len(public))
	for i, q := range public {
		ids[i] = q.ID
	}

	sess, err := s.store.CreateSession(ctx, p.ID, ids, s.now())
	if err != nil {
		return StartResponse{}, err
	}
	s.record(ctx, "test_started", sess.ID, map[string]any{
		"participant_id": p.ID,
		"questions":      len(ids),
	})
	return StartResponse{
		Message:        "Test started successfully",
		TestID:         sess.ID,
		ParticipantID:  p.ID,
		Questions:      public,
		MaxDuration:    s.opts.MaxDurationSec,
		TotalQuestions: len(public),
	}, nil
}

// SubmitTest grades the answer set and completes the session. The max
// duration is advisory: late submissions are still accepted and scored by
// wall-clock elapsed time. Re-submission is rejected, not re-scored.
func (s *Service) SubmitTest(ctx context.Context, req SubmitRequest) (SubmitResponse, error) {
	if req.TestID == "" {
		return SubmitResponse{}, NewValidationError("testId is required")
	}
	if req.Answers == nil {
		return SubmitResponse{}, NewValidationError("answers are required")
	}
	sess, err := s.store.GetSession(ctx, req.TestID)
	if err != nil {
		return SubmitResponse{}, err
	}
	if sess.Status == StatusCompleted {
		return SubmitResponse{}, NewAlreadyCompletedError("test already submitted")
	}

	result := Grade(sess.ID, req.Answers, s.catalog)
	endedAt := s.now()
	duration := int(endedAt.Unix() - sess.StartedAt)
	if duration < 0 {
		duration = 0
	}

	// The store's check-and-set decides the winner of any duplicate-submit
	// race; the status check above is only a fast path.
	completed, err := s.store.CompleteSession(ctx, Completion{
		TestID:         sess.ID,
		EndedAt:        endedAt,
		DurationSec:    duration,
		Score:          result.ScorePercent,
		CategoryScores: result.CategoryScores,
		Answers:        result.Graded,
	})
	if err != nil {
		return SubmitResponse{}, err
	}
	s.record(ctx, "test_submitted", completed.ID, map[string]any{
		"score":    completed.Score,
		"answered": result.TotalAnswered,
		"duration": duration,
	})
	return SubmitResponse{
		Message:        "Test submitted successfully",
		Score:          completed.Score,
		TotalQuestions: result.TotalAnswered,
		CorrectAnswers: result.CorrectCount,
		CategoryScores: result.CategoryScores,
		Duration:       duration,
	}, nil
}

// TestDetail returns a session with its participant and resolved answers.
func (s *Service) TestDetail(ctx context.Context, testID string) (TestDetail, error) {
	sess, err := s.store.GetSession(ctx, testID)
	if err != nil {
		return TestDetail{}, err
	}
	p, err := s.store.GetParticipant(ctx, sess.ParticipantID)
	if err != nil {
		return TestDetail{}, err
	}
	answers, err := s.store.SessionAnswers(ctx, testID)
	if err != nil {
		return TestDetail{}, err
	}
	detail := TestDetail{
		Test: SessionSummary{
			Session:     sess,
			Email:       p.Email,
			FullName:    p.FullName,
			Institution: p.Institution,
		},
		Participant: p,
		Answers:     make([]AnswerDetail, 0, len(answers)),
	}
	for _, a := range answers {
		d := AnswerDetail{GradedAnswer: a}
		if q, ok := s.catalog.Lookup(a.QuestionID); ok {
			d.QuestionText = q.Text
			d.Options = q.Options
			d.CorrectAnswer = q.CorrectAnswer
			d.Explanation = q.Explanation
			d.Points = q.Points
		}
		detail.Answers = append(detail.Answers, d)
	}
	return detail, nil
}

// Admin pass-throughs. The service is the single entry point so handlers
// never talk to the store directly.

func (s *Service) Participants(ctx context.Context) ([]Participant, error) {
	return s.store.ListParticipants(ctx)
}

func (s *Service) Tests(ctx context.Context, f SessionFilter) ([]SessionSummary, error) {
	return s.store.ListSessions(ctx, f)
}

func (s *Service) DashboardStats(ctx context.Context) (DashboardStats, error) {
	return s.store.Stats(ctx)
}

func (s *Service) record(ctx context.Context, typ, key string, payload any) {
	if s.events == nil {
		return
	}
	if err := s.events.Append(ctx, typ, key, payload); err != nil {
		log.Printf("audit append %s %s: %v", typ, key, err)
	}
}
