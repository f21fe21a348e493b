package assessment

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/renemunyeshyaka/cybersecurity-aptitude-test/internal/catalog"
)

func serviceFixture(t *testing.T) (*Service, Store) {
	t.Helper()
	var qs []catalog.Question
	for _, cat := range catalog.Categories {
		for i := 0; i < 6; i++ {
			qs = append(qs, mcq(fmt.Sprintf("%s-%d", cat, i), cat, "A"))
		}
	}
	store := NewInMemoryStore()
	svc := NewService(store, testCatalog(t, qs), Options{}, nil)
	return svc, store
}

func startedTest(t *testing.T, svc *Service) StartResponse {
	t.Helper()
	resp, err := svc.StartTest(context.Background(), StartRequest{
		Email:    "student@example.edu",
		FullName: "Test Student",
	})
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestStartTestReturnsGradingSafeQuestions(t *testing.T) {
	svc, store := serviceFixture(t)
	resp := startedTest(t, svc)

	if resp.TestID == "" || resp.ParticipantID == "" {
		t.Fatal("missing ids in start response")
	}
	if resp.TotalQuestions != 25 || len(resp.Questions) != 25 {
		t.Fatalf("got %d questions, want 25", len(resp.Questions))
	}
	if resp.MaxDuration != DefaultMaxDurationSec {
		t.Fatalf("maxDuration = %d, want %d", resp.MaxDuration, DefaultMaxDurationSec)
	}
	seen := map[string]bool{}
	for _, q := range resp.Questions {
		if seen[q.ID] {
			t.Fatalf("duplicate question %s in payload", q.ID)
		}
		seen[q.ID] = true
	}
	sess, err := store.GetSession(context.Background(), resp.TestID)
	if err != nil {
		t.Fatal(err)
	}
	if sess.Status != StatusInProgress {
		t.Fatalf("new session status = %q", sess.Status)
	}
	if len(sess.QuestionIDs) != 25 {
		t.Fatalf("session kept %d question ids", len(sess.QuestionIDs))
	}
}

func TestStartTestValidation(t *testing.T) {
	svc, _ := serviceFixture(t)
	cases := []struct {
		name string
		req  StartRequest
	}{
		{"missing email", StartRequest{FullName: "A"}},
		{"invalid email", StartRequest{Email: "not an email", FullName: "A"}},
		{"missing full name for new participant", StartRequest{Email: "new@example.edu"}},
	}
	for _, tc := range cases {
		_, err := svc.StartTest(context.Background(), tc.req)
		e, ok := AsError(err)
		if !ok || e.Code != ErrorInvalid {
			t.Errorf("%s: got %v, want validation error", tc.name, err)
		}
	}
}

func TestStartTestIdempotentOnCaseVariantEmail(t *testing.T) {
	svc, _ := serviceFixture(t)
	ctx := context.Background()
	first, err := svc.StartTest(ctx, StartRequest{Email: "a@b.com", FullName: "A", Institution: "X"})
	if err != nil {
		t.Fatal(err)
	}
	// Case-variant, padded email resolves to the same participant; fullName
	// is not required the second time around.
	second, err := svc.StartTest(ctx, StartRequest{Email: "  A@B.com "})
	if err != nil {
		t.Fatal(err)
	}
	if first.ParticipantID != second.ParticipantID {
		t.Fatalf("case-variant email created a second participant: %s vs %s",
			first.ParticipantID, second.ParticipantID)
	}
	if first.TestID == second.TestID {
		t.Fatal("each start must create a fresh session")
	}
}

func TestSubmitTestScoresAndCompletes(t *testing.T) {
	svc, store := serviceFixture(t)
	ctx := context.Background()
	resp := startedTest(t, svc)

	answers := make([]AnswerRecord, 0, len(resp.Questions))
	for i, q := range resp.Questions {
		sel := "A" // every fixture question keys on A
		if i%5 == 0 {
			sel = "B"
		}
		answers = append(answers, AnswerRecord{QuestionID: q.ID, SelectedOption: sel, TimeTakenSec: 3})
	}
	out, err := svc.SubmitTest(ctx, SubmitRequest{TestID: resp.TestID, Answers: answers})
	if err != nil {
		t.Fatal(err)
	}
	if out.TotalQuestions != 25 || out.CorrectAnswers != 20 {
		t.Fatalf("graded %d/%d, want 20/25", out.CorrectAnswers, out.TotalQuestions)
	}
	if out.Score != 80 {
		t.Fatalf("score = %v, want 80", out.Score)
	}
	if out.Duration < 0 {
		t.Fatalf("negative duration %d", out.Duration)
	}

	sess, err := store.GetSession(ctx, resp.TestID)
	if err != nil {
		t.Fatal(err)
	}
	if sess.Status != StatusCompleted || sess.Score != 80 {
		t.Fatalf("stored session %+v", sess)
	}
	p, err := store.GetParticipant(ctx, resp.ParticipantID)
	if err != nil {
		t.Fatal(err)
	}
	if p.TestsTaken != 1 {
		t.Fatalf("tests taken = %d, want 1", p.TestsTaken)
	}
}

func TestSubmitTwiceRejectsSecondAndKeepsFirstScore(t *testing.T) {
	svc, store := serviceFixture(t)
	ctx := context.Background()
	resp := startedTest(t, svc)

	all := func(sel string) []AnswerRecord {
		out := make([]AnswerRecord, 0, len(resp.Questions))
		for _, q := range resp.Questions {
			out = append(out, AnswerRecord{QuestionID: q.ID, SelectedOption: sel})
		}
		return out
	}
	first, err := svc.SubmitTest(ctx, SubmitRequest{TestID: resp.TestID, Answers: all("A")})
	if err != nil {
		t.Fatal(err)
	}
	if first.Score != 100 {
		t.Fatalf("first score = %v, want 100", first.Score)
	}

	_, err = svc.SubmitTest(ctx, SubmitRequest{TestID: resp.TestID, Answers: all("B")})
	e, ok := AsError(err)
	if !ok || e.Code != ErrorAlreadyCompleted {
		t.Fatalf("second submit: got %v, want already_completed", err)
	}

	sess, err := store.GetSession(ctx, resp.TestID)
	if err != nil {
		t.Fatal(err)
	}
	if sess.Score != 100 {
		t.Fatalf("second submit changed stored score to %v", sess.Score)
	}
}

func TestConcurrentSubmitsHaveExactlyOneWinner(t *testing.T) {
	svc, _ := serviceFixture(t)
	ctx := context.Background()
	resp := startedTest(t, svc)

	answers := []AnswerRecord{{QuestionID: resp.Questions[0].ID, SelectedOption: "A"}}
	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.SubmitTest(ctx, SubmitRequest{TestID: resp.TestID, Answers: answers})
		}(i)
	}
	wg.Wait()

	winners, conflicts := 0, 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		if e, ok := AsError(err); ok && e.Code == ErrorAlreadyCompleted {
			conflicts++
		}
	}
	if winners != 1 {
		t.Fatalf("%d submissions won, want exactly 1", winners)
	}
	if winners+conflicts != workers {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestSubmitUnknownTest(t *testing.T) {
	svc, _ := serviceFixture(t)
	_, err := svc.SubmitTest(context.Background(), SubmitRequest{TestID: "nope", Answers: []AnswerRecord{}})
	e, ok := AsError(err)
	if !ok || e.Code != ErrorNotFound {
		t.Fatalf("got %v, want not_found", err)
	}
}

func TestSubmitValidation(t *testing.T) {
	svc, _ := serviceFixture(t)
	ctx := context.Background()
	if _, err := svc.SubmitTest(ctx, SubmitRequest{Answers: []AnswerRecord{}}); err == nil {
		t.Fatal("missing testId accepted")
	}
	if _, err := svc.SubmitTest(ctx, SubmitRequest{TestID: "t"}); err == nil {
		t.Fatal("nil answers accepted")
	}
}

func TestTestDetailResolvesAnswers(t *testing.T) {
	svc, _ := serviceFixture(t)
	ctx := context.Background()
	resp := startedTest(t, svc)
	answers := []AnswerRecord{
		{QuestionID: resp.Questions[0].ID, SelectedOption: "A", TimeTakenSec: 7},
		{QuestionID: resp.Questions[1].ID, SelectedOption: "C", TimeTakenSec: 9},
	}
	if _, err := svc.SubmitTest(ctx, SubmitRequest{TestID: resp.TestID, Answers: answers}); err != nil {
		t.Fatal(err)
	}
	detail, err := svc.TestDetail(ctx, resp.TestID)
	if err != nil {
		t.Fatal(err)
	}
	if detail.Test.Email != "student@example.edu" {
		t.Fatalf("detail missing participant join: %+v", detail.Test)
	}
	if len(detail.Answers) != 2 {
		t.Fatalf("got %d answers, want 2", len(detail.Answers))
	}
	for _, a := range detail.Answers {
		if a.QuestionText == "" || a.CorrectAnswer == "" {
			t.Fatalf("answer not resolved against catalog: %+v", a)
		}
	}

	_, err = svc.TestDetail(ctx, "missing")
	if e, ok := AsError(err); !ok || e.Code != ErrorNotFound {
		t.Fatalf("unknown test detail: got %v, want not_found", err)
	}
}
