package assessment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/renemunyeshyaka/cybersecurity-aptitude-test/internal/catalog"
)

// SQLStore persists participants, tests and answers through database/sql.
// It works against both the sqlite and postgres drivers; placeholders use
// the $n form, which both accept.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) GetOrCreateParticipant(ctx context.Context, email, fullName, institution string) (Participant, error) {
	key := NormalizeEmail(email)
	if key == "" {
		return Participant{}, NewValidationError("email is required")
	}
	p, err := s.participantByEmail(ctx, key)
	if err == nil {
		return p, nil
	}
	if e, ok := AsError(err); !ok || e.Code != ErrorNotFound {
		return Participant{}, err
	}
	if fullName == "" {
		return Participant{}, NewValidationError("full name is required for new participants")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO participants (id,email,full_name,institution,registered_at,tests_taken)
		 VALUES ($1,$2,$3,$4,$5,0)
		 ON CONFLICT (email) DO NOTHING`,
		uuid.NewString(), key, fullName, institution, time.Now().Unix())
	if err != nil {
		return Participant{}, NewStorageError("create participant", err)
	}
	// Re-read: on a concurrent duplicate start the insert was a no-op and the
	// other writer's row wins.
	return s.participantByEmail(ctx, key)
}

func (s *SQLStore) participantByEmail(ctx context.Context, email string) (Participant, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,email,full_name,institution,registered_at,COALESCE(last_test_at,0),tests_taken
		 FROM participants WHERE email=$1`, email)
	return scanParticipant(row)
}

func (s *SQLStore) GetParticipant(ctx context.Context, id string) (Participant, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,email,full_name,institution,registered_at,COALESCE(last_test_at,0),tests_taken
		 FROM participants WHERE id=$1`, id)
	return scanParticipant(row)
}

func scanParticipant(row *sql.Row) (Participant, error) {
	var p Participant
	err := row.Scan(&p.ID, &p.Email, &p.FullName, &p.Institution, &p.RegisteredAt, &p.LastTestAt, &p.TestsTaken)
	if errors.Is(err, sql.ErrNoRows) {
		return Participant{}, NewNotFoundError("participant not found")
	}
	if err != nil {
		return Participant{}, NewStorageError("load participant", err)
	}
	return p, nil
}

func (s *SQLStore) ListParticipants(ctx context.Context) ([]Participant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,email,full_name,institution,registered_at,COALESCE(last_test_at,0),tests_taken
		 FROM participants ORDER BY registered_at DESC`)
	if err != nil {
		return nil, NewStorageError("list participants", err)
	}
	defer rows.Close()
	out := []Participant{}
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.ID, &p.Email, &p.FullName, &p.Institution, &p.RegisteredAt, &p.LastTestAt, &p.TestsTaken); err != nil {
			return nil, NewStorageError("scan participant", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError("list participants", err)
	}
	return out, nil
}

func (s *SQLStore) CreateSession(ctx context.Context, participantID string, questionIDs []string, startedAt time.Time) (Session, error) {
	qj, err := json.Marshal(questionIDs)
	if err != nil {
		return Session{}, NewStorageError("encode question ids", err)
	}
	sess := Session{
		ID:            uuid.NewString(),
		ParticipantID: participantID,
		Status:        StatusInProgress,
		QuestionIDs:   questionIDs,
		StartedAt:     startedAt.Unix(),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tests (id,participant_id,status,question_ids_json,started_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		sess.ID, sess.ParticipantID, sess.Status, string(qj), sess.StartedAt)
	if err != nil {
		return Session{}, NewStorageError("create test", err)
	}
	return sess, nil
}

func (s *SQLStore) GetSession(ctx context.Context, testID string) (Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,participant_id,status,question_ids_json,started_at,
		        COALESCE(ended_at,0),COALESCE(duration_sec,0),COALESCE(score,0),COALESCE(category_scores_json,'')
		 FROM tests WHERE id=$1`, testID)
	var sess Session
	var qjson, csjson string
	err := row.Scan(&sess.ID, &sess.ParticipantID, &sess.Status, &qjson, &sess.StartedAt,
		&sess.EndedAt, &sess.DurationSec, &sess.Score, &csjson)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, NewNotFoundError("test not found")
	}
	if err != nil {
		return Session{}, NewStorageError("load test", err)
	}
	if err := json.Unmarshal([]byte(qjson), &sess.QuestionIDs); err != nil {
		return Session{}, NewStorageError("decode question ids", err)
	}
	if csjson != "" {
		if err := json.Unmarshal([]byte(csjson), &sess.CategoryScores); err != nil {
			return Session{}, NewStorageError("decode category scores", err)
		}
	}
	return sess, nil
}

func (s *SQLStore) CompleteSession(ctx context.Context, c Completion) (Session, error) {
	csj, err := json.Marshal(c.CategoryScores)
	if err != nil {
		return Session{}, NewStorageError("encode category scores", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, NewStorageError("begin submit", err)
	}
	defer tx.Rollback()

	// The status guard makes this a compare-and-swap: of any number of
	// concurrent submissions exactly one update matches a row.
	res, err := tx.ExecContext(ctx,
		`UPDATE tests SET status=$1, ended_at=$2, duration_sec=$3, score=$4, category_scores_json=$5
		 WHERE id=$6 AND status=$7`,
		StatusCompleted, c.EndedAt.Unix(), c.DurationSec, c.Score, string(csj),
		c.TestID, StatusInProgress)
	if err != nil {
		return Session{}, NewStorageError("complete test", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Session{}, NewStorageError("complete test", err)
	}
	if n == 0 {
		var status string
		err := tx.QueryRowContext(ctx, `SELECT status FROM tests WHERE id=$1`, c.TestID).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, NewNotFoundError("test not found")
		}
		if err != nil {
			return Session{}, NewStorageError("load test", err)
		}
		return Session{}, NewAlreadyCompletedError("test already submitted")
	}

	for _, a := range c.Answers {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO answers (test_id,question_id,category,selected_option,time_taken_sec,is_correct)
			 VALUES ($1,$2,$3,$4,$5,$6)
			 ON CONFLICT (test_id,question_id) DO NOTHING`,
			a.TestID, a.QuestionID, string(a.Category), a.SelectedOption, a.TimeTakenSec, a.IsCorrect)
		if err != nil {
			return Session{}, NewStorageError("save answer", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE participants SET tests_taken=tests_taken+1, last_test_at=$1
		 WHERE id=(SELECT participant_id FROM tests WHERE id=$2)`,
		c.EndedAt.Unix(), c.TestID)
	if err != nil {
		return Session{}, NewStorageError("update participant stats", err)
	}
	if err := tx.Commit(); err != nil {
		return Session{}, NewStorageError("commit submit", err)
	}
	return s.GetSession(ctx, c.TestID)
}

func (s *SQLStore) SessionAnswers(ctx context.Context, testID string) ([]GradedAnswer, error) {
	if _, err := s.GetSession(ctx, testID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT test_id,question_id,category,selected_option,time_taken_sec,is_correct
		 FROM answers WHERE test_id=$1 ORDER BY question_id`, testID)
	if err != nil {
		return nil, NewStorageError("list answers", err)
	}
	defer rows.Close()
	out := []GradedAnswer{}
	for rows.Next() {
		var a GradedAnswer
		var cat string
		if err := rows.Scan(&a.TestID, &a.QuestionID, &cat, &a.SelectedOption, &a.TimeTakenSec, &a.IsCorrect); err != nil {
			return nil, NewStorageError("scan answer", err)
		}
		a.Category = catalog.Category(cat)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError("list answers", err)
	}
	return out, nil
}

func (s *SQLStore) ListSessions(ctx context.Context, f SessionFilter) ([]SessionSummary, error) {
	q := `SELECT t.id,t.participant_id,t.status,t.question_ids_json,t.started_at,
	             COALESCE(t.ended_at,0),COALESCE(t.duration_sec,0),COALESCE(t.score,0),COALESCE(t.category_scores_json,''),
	             p.email,p.full_name,p.institution
	      FROM tests t JOIN participants p ON t.participant_id=p.id WHERE 1=1`
	args := []any{}
	n := 1
	if f.Status != "" {
		q += fmt.Sprintf(" AND t.status=$%d", n)
		args = append(args, f.Status)
		n++
	}
	if !f.StartDate.IsZero() {
		q += fmt.Sprintf(" AND t.started_at>=$%d", n)
		args = append(args, f.StartDate.Unix())
		n++
	}
	if !f.EndDate.IsZero() {
		q += fmt.Sprintf(" AND t.started_at<=$%d", n)
		args = append(args, f.EndDate.Unix())
		n++
	}
	q += ` ORDER BY t.started_at DESC`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, NewStorageError("list tests", err)
	}
	defer rows.Close()
	out := []SessionSummary{}
	for rows.Next() {
		var sum SessionSummary
		var qjson, csjson string
		if err := rows.Scan(&sum.ID, &sum.ParticipantID, &sum.Status, &qjson, &sum.StartedAt,
			&sum.EndedAt, &sum.DurationSec, &sum.Score, &csjson,
			&sum.Email, &sum.FullName, &sum.Institution); err != nil {
			return nil, NewStorageError("scan test", err)
		}
		if err := json.Unmarshal([]byte(qjson), &sum.QuestionIDs); err != nil {
			return nil, NewStorageError("decode question ids", err)
		}
		if csjson != "" {
			if err := json.Unmarshal([]byte(csjson), &sum.CategoryScores); err != nil {
				return nil, NewStorageError("decode category scores", err)
			}
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError("list tests", err)
	}
	return out, nil
}

func (s *SQLStore) Stats(ctx context.Context) (DashboardStats, error) {
	var stats DashboardStats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM participants`).Scan(&stats.TotalParticipants); err != nil {
		return stats, NewStorageError("count participants", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tests`).Scan(&stats.TotalTests); err != nil {
		return stats, NewStorageError("count tests", err)
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(AVG(score),0) FROM tests WHERE status=$1`, StatusCompleted)
	if err := row.Scan(&stats.CompletedTests, &stats.AverageScore); err != nil {
		return stats, NewStorageError("aggregate scores", err)
	}
	stats.AverageScore = RoundPercent(stats.AverageScore)

	rows, err := s.db.QueryContext(ctx,
		`SELECT category, COUNT(*), SUM(CASE WHEN is_correct THEN 1 ELSE 0 END)
		 FROM answers GROUP BY category ORDER BY category`)
	if err != nil {
		return stats, NewStorageError("aggregate categories", err)
	}
	defer rows.Close()
	for rows.Next() {
		var cs CategoryStat
		var cat string
		if err := rows.Scan(&cat, &cs.TotalQuestions, &cs.CorrectAnswers); err != nil {
			return stats, NewStorageError("scan category stat", err)
		}
		cs.Category = catalog.Category(cat)
		if cs.TotalQuestions > 0 {
			cs.Percentage = RoundPercent(100 * float64(cs.CorrectAnswers) / float64(cs.TotalQuestions))
		}
		stats.CategoryStats = append(stats.CategoryStats, cs)
	}
	if err := rows.Err(); err != nil {
		return stats, NewStorageError("aggregate categories", err)
	}
	return stats, nil
}
