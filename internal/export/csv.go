package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/renemunyeshyaka/cybersecurity-aptitude-test/internal/assessment"
)

// TestResultsCSV writes the test results spreadsheet: one row per session,
// joined with the participant's identity. Column order matches the admin
// dashboard table.
func TestResultsCSV(w io.Writer, tests []assessment.SessionSummary) error {
	cw := csv.NewWriter(w)
	header := []string{
		"Participant Email", "Full Name", "Institution",
		"Test Date", "Duration (seconds)", "Score (%)", "Status", "Test ID",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, t := range tests {
		duration := "N/A"
		score := "0.00"
		if t.Status == assessment.StatusCompleted {
			duration = fmt.Sprintf("%d", t.DurationSec)
			score = fmt.Sprintf("%.2f", t.Score)
		}
		row := []string{
			t.Email,
			t.FullName,
			t.Institution,
			time.Unix(t.StartedAt, 0).UTC().Format(time.RFC3339),
			duration,
			score,
			t.Status,
			t.ID,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
