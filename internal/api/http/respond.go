package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/renemunyeshyaka/cybersecurity-aptitude-test/internal/assessment"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError translates the service error taxonomy to a stable status/body
// pair. Unknown errors become a 500; they are logged, never swallowed.
func writeError(w http.ResponseWriter, err error) {
	if e, ok := assessment.AsError(err); ok {
		status := http.StatusInternalServerError
		switch e.Code {
		case assessment.ErrorInvalid:
			status = http.StatusBadRequest
		case assessment.ErrorNotFound:
			status = http.StatusNotFound
		case assessment.ErrorAlreadyCompleted:
			status = http.StatusBadRequest
		case assessment.ErrorStorageUnavailable:
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, map[string]string{"error": e.Message})
		return
	}
	log.Printf("internal error: %v", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
