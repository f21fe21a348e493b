package http

import (
	"log"
	"net/http"
	"time"

	"github.com/renemunyeshyaka/cybersecurity-aptitude-test/internal/assessment"
	"github.com/renemunyeshyaka/cybersecurity-aptitude-test/internal/export"
)

// GET /api/admin/participants
func ListParticipantsHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := svc.Participants(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// GET /api/admin/tests?status=&startDate=&endDate=
// Dates are RFC 3339 or plain YYYY-MM-DD; malformed values are rejected.
func ListTestsHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := filterFromQuery(r)
		if err != nil {
			writeError(w, err)
			return
		}
		out, err := svc.Tests(r.Context(), f)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// GET /api/admin/dashboard/stats
func DashboardStatsHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.DashboardStats(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

// GET /api/admin/export/csv?startDate=&endDate=
func ExportCSVHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := filterFromQuery(r)
		if err != nil {
			writeError(w, err)
			return
		}
		tests, err := svc.Tests(r.Context(), f)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename=test_results.csv`)
		if err := export.TestResultsCSV(w, tests); err != nil {
			// headers already sent; log and cut the stream short
			log.Printf("export csv: %v", err)
		}
	}
}

func filterFromQuery(r *http.Request) (assessment.SessionFilter, error) {
	f := assessment.SessionFilter{Status: r.URL.Query().Get("status")}
	var err error
	if f.StartDate, err = parseDate(r.URL.Query().Get("startDate")); err != nil {
		return f, assessment.NewValidationError("startDate is not a valid date")
	}
	if f.EndDate, err = parseDate(r.URL.Query().Get("endDate")); err != nil {
		return f, assessment.NewValidationError("endDate is not a valid date")
	}
	return f, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
