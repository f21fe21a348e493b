package assessment

import (
	"context"
	"testing"
	"time"

	"github.com/renemunyeshyaka/cybersecurity-aptitude-test/internal/catalog"
)

func TestMemoryStoreParticipantLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	p1, err := store.GetOrCreateParticipant(ctx, "A@B.com", "Alice", "X")
	if err != nil {
		t.Fatal(err)
	}
	if p1.Email != "a@b.com" {
		t.Fatalf("email not normalized: %q", p1.Email)
	}
	p2, err := store.GetOrCreateParticipant(ctx, "a@b.com ", "", "")
	if err != nil {
		t.Fatalf("existing participant should not require full name: %v", err)
	}
	if p1.ID != p2.ID {
		t.Fatal("same email resolved to different participants")
	}

	if _, err := store.GetOrCreateParticipant(ctx, "", "A", ""); err == nil {
		t.Fatal("empty email accepted")
	}
	if _, err := store.GetOrCreateParticipant(ctx, "new@b.com", "", ""); err == nil {
		t.Fatal("new participant without full name accepted")
	}
}

func TestMemoryStoreCompleteUpdatesStatsAndAnswers(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	p, err := store.GetOrCreateParticipant(ctx, "s@t.edu", "S", "")
	if err != nil {
		t.Fatal(err)
	}
	sess, err := store.CreateSession(ctx, p.ID, []string{"q1", "q2"}, time.Now())
	if err != nil {
		t.Fatal(err)
	}

	_, err = store.CompleteSession(ctx, Completion{
		TestID:      sess.ID,
		EndedAt:     time.Now(),
		DurationSec: 42,
		Score:       50,
		CategoryScores: map[catalog.Category]*CategoryScore{
			catalog.CategoryCapstone: {Correct: 1, Total: 2, Points: 1},
		},
		Answers: []GradedAnswer{
			{TestID: sess.ID, QuestionID: "q1", Category: catalog.CategoryCapstone, SelectedOption: "A", IsCorrect: true},
			{TestID: sess.ID, QuestionID: "q2", Category: catalog.CategoryCapstone, SelectedOption: "B", IsCorrect: false},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	answers, err := store.SessionAnswers(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(answers) != 2 {
		t.Fatalf("stored %d answers, want 2", len(answers))
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalParticipants != 1 || stats.TotalTests != 1 || stats.CompletedTests != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.AverageScore != 50 {
		t.Fatalf("average score = %v, want 50", stats.AverageScore)
	}
	if len(stats.CategoryStats) != 1 {
		t.Fatalf("category stats = %+v", stats.CategoryStats)
	}
	cs := stats.CategoryStats[0]
	if cs.Category != catalog.CategoryCapstone || cs.TotalQuestions != 2 || cs.CorrectAnswers != 1 || cs.Percentage != 50 {
		t.Fatalf("category stat = %+v", cs)
	}
}

func TestMemoryStoreListSessionsFilters(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	p, err := store.GetOrCreateParticipant(ctx, "s@t.edu", "S", "Uni")
	if err != nil {
		t.Fatal(err)
	}
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s1, err := store.CreateSession(ctx, p.ID, []string{"q1"}, started)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.CreateSession(ctx, p.ID, []string{"q1"}, started.Add(48*time.Hour)); err != nil {
		t.Fatal(err)
	}
	if _, err := store.CompleteSession(ctx, Completion{TestID: s1.ID, EndedAt: started.Add(time.Minute), DurationSec: 60}); err != nil {
		t.Fatal(err)
	}

	completed, err := store.ListSessions(ctx, SessionFilter{Status: StatusCompleted})
	if err != nil {
		t.Fatal(err)
	}
	if len(completed) != 1 || completed[0].ID != s1.ID {
		t.Fatalf("status filter returned %+v", completed)
	}
	if completed[0].Email != "s@t.edu" || completed[0].Institution != "Uni" {
		t.Fatalf("participant join missing: %+v", completed[0])
	}

	windowed, err := store.ListSessions(ctx, SessionFilter{
		StartDate: started.Add(-time.Hour),
		EndDate:   started.Add(time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(windowed) != 1 || windowed[0].ID != s1.ID {
		t.Fatalf("date window returned %+v", windowed)
	}
}
