package assessment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/renemunyeshyaka/cybersecurity-aptitude-test/internal/catalog"
)

// memoryStore keeps everything in mutex-guarded maps. It backs tests and
// single-node deployments that don't need a database.
type memoryStore struct {
	mu           sync.Mutex
	participants map[string]Participant // by id
	byEmail      map[string]string      // normalized email -> id
	sessions     map[string]Session     // by id
	answers      map[string][]GradedAnswer
}

func NewInMemoryStore() Store {
	return &memoryStore{
		participants: map[string]Participant{},
		byEmail:      map[string]string{},
		sessions:     map[string]Session{},
		answers:      map[string][]GradedAnswer{},
	}
}

func (m *memoryStore) GetOrCreateParticipant(ctx context.Context, email, fullName, institution string) (Participant, error) {
	key := NormalizeEmail(email)
	if key == "" {
		return Participant{}, NewValidationError("email is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byEmail[key]; ok {
		return m.participants[id], nil
	}
	if fullName == "" {
		return Participant{}, NewValidationError("full name is required for new participants")
	}
	p := Participant{
		ID:           uuid.NewString(),
		Email:        key,
		FullName:     fullName,
		Institution:  institution,
		RegisteredAt: time.Now().Unix(),
	}
	m.participants[p.ID] = p
	m.byEmail[key] = p.ID
	return p, nil
}

func (m *memoryStore) GetParticipant(ctx context.Context, id string) (Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.participants[id]
	if !ok {
		return Participant{}, NewNotFoundError("participant not found")
	}
	return p, nil
}

func (m *memoryStore) ListParticipants(ctx context.Context) ([]Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Participant, 0, len(m.participants))
	for _, p := range m.participants {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegisteredAt > out[j].RegisteredAt })
	return out, nil
}

func (m *memoryStore) CreateSession(ctx context.Context, participantID string, questionIDs []string, startedAt time.Time) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.participants[participantID]; !ok {
		return Session{}, NewNotFoundError("participant not found")
	}
	s := Session{
		ID:            uuid.NewString(),
		ParticipantID: participantID,
		Status:        StatusInProgress,
		QuestionIDs:   append([]string(nil), questionIDs...),
		StartedAt:     startedAt.Unix(),
	}
	m.sessions[s.ID] = s
	return s, nil
}

func (m *memoryStore) GetSession(ctx context.Context, testID string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[testID]
	if !ok {
		return Session{}, NewNotFoundError("test not found")
	}
	return s, nil
}

func (m *memoryStore) CompleteSession(ctx context.Context, c Completion) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[c.TestID]
	if !ok {
		return Session{}, NewNotFoundError("test not found")
	}
	if s.Status == StatusCompleted {
		return Session{}, NewAlreadyCompletedError("test already submitted")
	}
	s.Status = StatusCompleted
	s.EndedAt = c.EndedAt.Unix()
	s.DurationSec = c.DurationSec
	s.Score = c.Score
	s.CategoryScores = c.CategoryScores
	m.sessions[s.ID] = s
	m.answers[s.ID] = append([]GradedAnswer(nil), c.Answers...)

	p := m.participants[s.ParticipantID]
	p.TestsTaken++
	p.LastTestAt = c.EndedAt.Unix()
	m.participants[p.ID] = p
	return s, nil
}

func (m *memoryStore) SessionAnswers(ctx context.Context, testID string) ([]GradedAnswer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[testID]; !ok {
		return nil, NewNotFoundError("test not found")
	}
	return append([]GradedAnswer(nil), m.answers[testID]...), nil
}

func (m *memoryStore) ListSessions(ctx context.Context, f SessionFilter) ([]SessionSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []SessionSummary{}
	for _, s := range m.sessions {
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		if !f.StartDate.IsZero() && s.StartedAt < f.StartDate.Unix() {
			continue
		}
		if !f.EndDate.IsZero() && s.StartedAt > f.EndDate.Unix() {
			continue
		}
		p := m.participants[s.ParticipantID]
		out = append(out, SessionSummary{
			Session:     s,
			Email:       p.Email,
			FullName:    p.FullName,
			Institution: p.Institution,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt > out[j].StartedAt })
	return out, nil
}

func (m *memoryStore) Stats(ctx context.Context) (DashboardStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := DashboardStats{TotalParticipants: len(m.participants), TotalTests: len(m.sessions)}
	sum := 0.0
	for _, s := range m.sessions {
		if s.Status == StatusCompleted {
			stats.CompletedTests++
			sum += s.Score
		}
	}
	if stats.CompletedTests > 0 {
		stats.AverageScore = RoundPercent(sum / float64(stats.CompletedTests))
	}
	agg := map[catalog.Category]*CategoryStat{}
	for _, answers := range m.answers {
		for _, a := range answers {
			cs := agg[a.Category]
			if cs == nil {
				cs = &CategoryStat{Category: a.Category}
				agg[a.Category] = cs
			}
			cs.TotalQuestions++
			if a.IsCorrect {
				cs.CorrectAnswers++
			}
		}
	}
	for _, cat := range catalog.Categories {
		cs, ok := agg[cat]
		if !ok {
			continue
		}
		cs.Percentage = RoundPercent(100 * float64(cs.CorrectAnswers) / float64(cs.TotalQuestions))
		stats.CategoryStats = append(stats.CategoryStats, *cs)
	}
	return stats, nil
}
