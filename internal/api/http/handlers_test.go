package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	api "github.com/sansudrill/drill-backend/internal/api/http"
	"github.com/sansudrill/drill-backend/internal/authz"
	"github.com/sansudrill/drill-backend/internal/quiz"
	"github.com/sansudrill/drill-backend/internal/sheet"
)

func testRouter(t *testing.T, gate authz.Gate) (*chi.Mux, sheet.Store) {
	t.Helper()
	store := sheet.NewMemoryStore()

	header := sheet.QuestionColumns
	if err := store.WriteHeader(context.Background(), sheet.TableQuestions, header); err != nil {
		t.Fatal(err)
	}
	row := []string{"1", "3", "calc", "skill", "stem?", "1|2|3|4", "A", "", "", "", "", "", "2", ""}
	if err := store.Append(context.Background(), sheet.TableQuestions, row); err != nil {
		t.Fatal(err)
	}

	svc := quiz.NewService(store, quiz.Options{Gate: gate, TimeZone: time.UTC})
	r := chi.NewRouter()
	r.Get("/healthz", api.HealthHandler(svc))
	r.Get("/domains", api.DomainsHandler(svc))
	r.Get("/questions", api.QuestionsHandler(svc))
	r.Post("/responses", api.LogResponseHandler(svc))
	r.Get("/summary/today", api.SummaryHandler(svc))
	r.Get("/overlay/today", api.OverlayHandler(svc))
	return r, store
}

func TestHealthz(t *testing.T) {
	r, _ := testRouter(t, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var h quiz.Health
	if err := json.Unmarshal(rec.Body.Bytes(), &h); err != nil {
		t.Fatal(err)
	}
	if !h.OK || !h.HasQuestions {
		t.Fatalf("health payload: %+v", h)
	}
}

func TestGetQuestions(t *testing.T) {
	r, _ := testRouter(t, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/questions?user_id=u1&order=sequential&limit=10", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var qs []quiz.Question
	if err := json.Unmarshal(rec.Body.Bytes(), &qs); err != nil {
		t.Fatal(err)
	}
	if len(qs) != 1 || qs[0].QID != "1" {
		t.Fatalf("questions payload: %+v", qs)
	}
}

func TestGetQuestionsForbidden(t *testing.T) {
	r, _ := testRouter(t, authz.FromList("alice"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/questions?user_id=mallory", nil))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "full-width") {
		t.Fatalf("forbidden response should carry the normalization hint: %q", rec.Body.String())
	}
}

func TestGetQuestionsEmptyIsJSONArray(t *testing.T) {
	r, _ := testRouter(t, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/questions?user_id=u1&domain=nope", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("empty pool should encode as [], got %q", got)
	}
}

func TestPostResponseAndDedup(t *testing.T) {
	r, store := testRouter(t, nil)
	body := `{"user_id":"u1","qid":"1","chosen":"B","correct":true,"elapsed_ms":900,"device":"tablet"}`

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/responses", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var res quiz.LogResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if !res.OK || res.Deduped {
		t.Fatalf("first submission: %+v", res)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/responses", strings.NewReader(body)))
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if !res.OK || !res.Deduped {
		t.Fatalf("duplicate submission should dedup, not fail: %+v", res)
	}

	rows, err := store.ReadAll(context.Background(), sheet.TableResponses)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 { // header + 1 data row
		t.Fatalf("expected exactly one durable row, got %d", len(rows)-1)
	}
}

func TestPostResponseBadJSON(t *testing.T) {
	r, _ := testRouter(t, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/responses", strings.NewReader("{not json")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPostResponseClientTimestamp(t *testing.T) {
	r, store := testRouter(t, nil)
	body := `{"user_id":"u1","qid":"1","chosen":"A","timestamp":"2026-08-31T01:02:03Z"}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/responses", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	rows, _ := store.ReadAll(context.Background(), sheet.TableResponses)
	if len(rows) != 2 {
		t.Fatalf("expected one data row, got %d", len(rows)-1)
	}
	if !strings.HasPrefix(rows[1][0], "2026-08-31T01:02:03") {
		t.Fatalf("caller timestamp not persisted: %q", rows[1][0])
	}
}

func TestSummaryToday(t *testing.T) {
	r, _ := testRouter(t, nil)

	body := `{"user_id":"u1","qid":"1","chosen":"A","correct":true}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/responses", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("seed response: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/summary/today?user_id=u1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var sum quiz.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil {
		t.Fatal(err)
	}
	if sum.Done != 1 || sum.Corrects != 1 || sum.Date == "" {
		t.Fatalf("summary payload: %+v", sum)
	}
}

func TestOverlayTodayShape(t *testing.T) {
	r, _ := testRouter(t, nil)

	body := `{"user_id":"u1","qid":"1","chosen":"A","correct":false}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/responses", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("seed response: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/overlay/today?user_id=u1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var ov quiz.Overlay
	if err := json.Unmarshal(rec.Body.Bytes(), &ov); err != nil {
		t.Fatal(err)
	}
	if !ov.OK || ov.Cols*ov.Rows != len(ov.Levels) {
		t.Fatalf("overlay payload: cols=%d rows=%d len=%d", ov.Cols, ov.Rows, len(ov.Levels))
	}
	if ov.Levels[0] != 1 {
		t.Fatalf("attempted question should mark its cell: %v", ov.Levels[:4])
	}
}

func TestDomainsPublic(t *testing.T) {
	r, _ := testRouter(t, authz.FromList("alice"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/domains", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("domains should not require authorization: %d", rec.Code)
	}
	var out []string
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0] != "calc" {
		t.Fatalf("domains payload: %v", out)
	}
}
