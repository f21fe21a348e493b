package assessment

import (
	"math"

	"github.com/renemunyeshyaka/cybersecurity-aptitude-test/internal/catalog"
)

// ScoreResult is the outcome of grading one submission.
type ScoreResult struct {
	ScorePercent   float64
	CorrectCount   int
	TotalAnswered  int
	CategoryScores map[catalog.Category]*CategoryScore
	Graded         []GradedAnswer
}

// QuestionLookup resolves a question id to its full, gradable view.
type QuestionLookup interface {
	Lookup(id string) (catalog.Question, bool)
}

// Grade scores a submitted answer set against the catalog. It is a pure
// function of its inputs: no clock, no randomness, no storage.
//
// Answers referencing unknown question ids are skipped and excluded from the
// denominator. A blank selection is simply incorrect. The overall percentage
// is points earned over answers graded, rounded half-up to two decimals and
// clamped to [0,100]; an empty submission scores 0.
func Grade(testID string, answers []AnswerRecord, lookup QuestionLookup) ScoreResult {
	res := ScoreResult{
		CategoryScores: map[catalog.Category]*CategoryScore{},
	}
	pointsEarned := 0
	for _, ans := range answers {
		q, ok := lookup.Lookup(ans.QuestionID)
		if !ok {
			continue // unknown question id is not an error, just ignored
		}
		correct := ans.SelectedOption != "" && ans.SelectedOption == q.CorrectAnswer

		cs := res.CategoryScores[q.Category]
		if cs == nil {
			cs = &CategoryScore{}
			res.CategoryScores[q.Category] = cs
		}
		cs.Total++
		res.TotalAnswered++
		if correct {
			cs.Correct++
			cs.Points += q.Points
			res.CorrectCount++
			pointsEarned += q.Points
		}

		res.Graded = append(res.Graded, GradedAnswer{
			TestID:         testID,
			QuestionID:     ans.QuestionID,
			Category:       q.Category,
			SelectedOption: ans.SelectedOption,
			TimeTakenSec:   ans.TimeTakenSec,
			IsCorrect:      correct,
		})
	}
	if res.TotalAnswered > 0 {
		res.ScorePercent = RoundPercent(100 * float64(pointsEarned) / float64(res.TotalAnswered))
		if res.ScorePercent > 100 {
			res.ScorePercent = 100
		}
	}
	return res
}

// RoundPercent rounds half-up to two decimal places.
func RoundPercent(v float64) float64 {
	return math.Round(v*100) / 100
}
