package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"math/rand"
	"net/http"
	"oil-collection-service/internal/domain"
	"time"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode failed: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

// decodeBody reads exactly one JSON object into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}
	return true
}

// writeEngineError maps engine failures to a status: shortages and
// reconciliation gaps are the caller's problem, anything else is ours.
func writeEngineError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var ie *domain.InsufficiencyError
	var re *domain.ReconciliationError
	switch {
	case errors.As(err, &ie), errors.As(err, &re), errors.Is(err, domain.ErrToleranceUnreachable):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	default:
		log.Printf("%s failed: %v", op, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

func newRand(seed *int64) *rand.Rand {
	if seed != nil {
		return rand.New(rand.NewSource(*seed))
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

func parseMonth(s string) (time.Time, error) {
	return time.Parse("2006-01", s)
}
