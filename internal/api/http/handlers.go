package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sansudrill/drill-backend/internal/quiz"
)

// GET /domains
func DomainsHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := svc.Domains(r.Context())
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, out)
	}
}

// GET /questions?domain=...&user_id=...&order=random|sequential&limit=5
func QuestionsHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := quiz.QuestionQuery{
			Domain: strings.TrimSpace(r.URL.Query().Get("domain")),
			UserID: r.URL.Query().Get("user_id"),
			Order:  strings.TrimSpace(r.URL.Query().Get("order")),
			Limit:  parseIntDefault(r.URL.Query().Get("limit"), 0),
		}
		out, err := svc.Questions(r.Context(), q)
		if err != nil {
			httpError(w, err)
			return
		}
		if out == nil {
			// Zero questions is a valid outcome, not an error.
			out = []quiz.Question{}
		}
		writeJSON(w, out)
	}
}

// POST /responses
func LogResponseHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID    string          `json:"user_id"`
			QID       string          `json:"qid"`
			Chosen    string          `json:"chosen"`
			Correct   bool            `json:"correct"`
			ElapsedMS int64           `json:"elapsed_ms"`
			Device    string          `json:"device"`
			Timestamp json.RawMessage `json:"timestamp"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.QID == "" {
			http.Error(w, "qid required", http.StatusBadRequest)
			return
		}
		out, err := svc.LogResponse(r.Context(), quiz.Event{
			UserID:    req.UserID,
			QID:       req.QID,
			Chosen:    req.Chosen,
			Correct:   req.Correct,
			ElapsedMS: req.ElapsedMS,
			Device:    req.Device,
			At:        parseClientTimestamp(req.Timestamp),
		})
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, out)
	}
}

// GET /summary/today?user_id=...
func SummaryHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := svc.TodaySummary(r.Context(), r.URL.Query().Get("user_id"))
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, out)
	}
}

// GET /overlay/today?user_id=...
func OverlayHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := svc.OverlayToday(r.Context(), r.URL.Query().Get("user_id"))
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, out)
	}
}

// GET /healthz
func HealthHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := svc.Health(r.Context())
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, out)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quiz.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, quiz.ErrLockTimeout):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// parseClientTimestamp accepts RFC3339 strings or unix milliseconds.
// Anything else yields zero, which means the server clock decides.
func parseClientTimestamp(raw json.RawMessage) time.Time {
	if len(raw) == 0 {
		return time.Time{}
	}
	var ms int64
	if err := json.Unmarshal(raw, &ms); err == nil {
		return time.UnixMilli(ms)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
