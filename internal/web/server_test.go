package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/emiliopalmerini/soilstab/internal/adapters/prometheus"
	"github.com/emiliopalmerini/soilstab/internal/domain"
	"github.com/emiliopalmerini/soilstab/internal/engine"
	"github.com/emiliopalmerini/soilstab/internal/service"
)

// memoryHistory is an in-memory ports.HistoryRepository.
type memoryHistory struct {
	mu   sync.Mutex
	subs []*domain.Submission
	err  error
}

func (m *memoryHistory) Save(ctx context.Context, s *domain.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.subs = append(m.subs, s)
	return nil
}

func (m *memoryHistory) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subs {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, nil
}

func (m *memoryHistory) ListRecent(ctx context.Context, limit int) ([]*domain.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.Submission
	for i := len(m.subs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.subs[i])
	}
	return out, nil
}

func (m *memoryHistory) CountByMethod(ctx context.Context) (map[domain.Method]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[domain.Method]int64{}
	for _, s := range m.subs {
		counts[s.Recommendation.Method]++
	}
	return counts, nil
}

func testServer(t *testing.T, opts ...service.Option) (*Server, *prometheus.Collector) {
	t.Helper()
	e, err := engine.NewDefault(engine.DefaultParams())
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}
	collector := prometheus.NewCollector()
	opts = append(opts, service.WithExporters(collector))
	svc := service.New(e, opts...)
	return NewServer(svc, 0, nil, collector), collector
}

func exampleForm() url.Values {
	return url.Values{
		"clay_pct":         {"40"},
		"silt_pct":         {"30"},
		"moisture_pct":     {"20"},
		"plasticity_index": {"15"},
		"ph":               {"7.0"},
		"budget":           {"high"},
		"eco_preferred":    {"true"},
	}
}

func do(t *testing.T, s *Server, req *http.Request) (*httptest.ResponseRecorder, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	body, _ := io.ReadAll(rec.Body)
	return rec, string(body)
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestHealth(t *testing.T) {
	s, _ := testServer(t)
	rec, body := do(t, s, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || body != "ok" {
		t.Errorf("expected 200 ok, got %d %q", rec.Code, body)
	}
}

func TestIndex(t *testing.T) {
	s, _ := testServer(t)
	rec, body := do(t, s, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(body, `hx-post="/recommend"`) {
		t.Error("expected htmx form")
	}
}

func TestStaticStylesheet(t *testing.T) {
	s, _ := testServer(t)
	rec, body := do(t, s, httptest.NewRequest(http.MethodGet, "/static/style.css", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(body, "::-webkit-scrollbar-thumb") {
		t.Error("expected stylesheet content")
	}
}

func TestRecommend_FullPage(t *testing.T) {
	history := &memoryHistory{}
	s, _ := testServer(t, service.WithHistory(history))

	rec, body := do(t, s, postForm("/recommend", exampleForm()))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(body, "<!doctype html>") {
		t.Error("expected full page without HX-Request")
	}
	if !strings.Contains(body, `<h2 class="method">Mycelium</h2>`) {
		t.Error("expected Mycelium recommendation")
	}
	if !strings.Contains(body, `value="40"`) {
		t.Error("expected submitted values to be kept in the form")
	}
	if len(history.subs) != 1 {
		t.Errorf("expected 1 recorded submission, got %d", len(history.subs))
	}
}

func TestRecommend_HTMXPartial(t *testing.T) {
	s, _ := testServer(t)
	req := postForm("/recommend", exampleForm())
	req.Header.Set("HX-Request", "true")

	rec, body := do(t, s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(body, "<!doctype html>") {
		t.Error("expected fragment for htmx request")
	}
	if !strings.Contains(body, "Mycelium") || !strings.Contains(body, "253.0 kPa") {
		t.Errorf("unexpected fragment: %s", body)
	}
}

func TestRecommend_ValidationError(t *testing.T) {
	s, _ := testServer(t)
	form := exampleForm()
	form.Set("clay_pct", "70")
	form.Set("silt_pct", "40")

	rec, body := do(t, s, postForm("/recommend", form))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if !strings.Contains(body, "clay and silt together exceed 100%") {
		t.Errorf("expected invariant message in page")
	}

	req := postForm("/recommend", form)
	req.Header.Set("HX-Request", "true")
	rec, body = do(t, s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for htmx error fragment, got %d", rec.Code)
	}
	if !strings.Contains(body, `role="alert"`) {
		t.Error("expected error panel")
	}
}

func TestAPIRecommend(t *testing.T) {
	s, _ := testServer(t)
	body := `{"clay_pct":5,"silt_pct":10,"moisture_pct":15,"plasticity_index":2,"ph":8,"budget":"high"}`

	rec, out := do(t, s, httptest.NewRequest(http.MethodPost, "/api/recommend", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, out)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}

	var resp recommendResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Method != domain.MethodMICP {
		t.Errorf("expected MICP, got %s", resp.Method)
	}
	if resp.PredictedStrengthKPa != 1526 {
		t.Errorf("expected 1526 kPa, got %v", resp.PredictedStrengthKPa)
	}
	if resp.EstimatedCost != 107 {
		t.Errorf("expected cost 107, got %v", resp.EstimatedCost)
	}
	if resp.Saved {
		t.Error("expected Saved=false without history")
	}
}

func TestAPIRecommend_Errors(t *testing.T) {
	s, _ := testServer(t)

	rec, _ := do(t, s, httptest.NewRequest(http.MethodPost, "/api/recommend", strings.NewReader(`{not json`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", rec.Code)
	}

	rec, out := do(t, s, httptest.NewRequest(http.MethodPost, "/api/recommend", strings.NewReader(`{"ph":20}`)))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// clay, silt, moisture, PI, pH and budget
	if len(resp.Violations) != 6 {
		t.Errorf("expected 6 violations, got %d: %+v", len(resp.Violations), resp.Violations)
	}
}

func TestAPIParams(t *testing.T) {
	s, _ := testServer(t)
	rec, out := do(t, s, httptest.NewRequest(http.MethodGet, "/api/params", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var p engine.Params
	if err := json.Unmarshal([]byte(out), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.MICP.MaxGainKPa != engine.DefaultParams().MICP.MaxGainKPa {
		t.Errorf("unexpected params %+v", p.MICP)
	}
}

func TestHistory(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		s, _ := testServer(t)
		rec, body := do(t, s, httptest.NewRequest(http.MethodGet, "/history", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(body, "History is disabled") {
			t.Error("expected disabled notice")
		}
	})

	t.Run("lists submissions", func(t *testing.T) {
		history := &memoryHistory{}
		s, _ := testServer(t, service.WithHistory(history))
		do(t, s, postForm("/recommend", exampleForm()))

		rec, body := do(t, s, httptest.NewRequest(http.MethodGet, "/history", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(body, "<table") || !strings.Contains(body, "253.0 kPa") {
			t.Error("expected history table with the submission")
		}
	})

	t.Run("show more stops at the cap", func(t *testing.T) {
		history := &memoryHistory{}
		for i := 0; i < maxHistoryLimit; i++ {
			history.subs = append(history.subs, &domain.Submission{
				ID:             fmt.Sprintf("sub-%d", i),
				Recommendation: domain.Recommendation{Method: domain.MethodMICP},
			})
		}
		s, _ := testServer(t, service.WithHistory(history))

		_, body := do(t, s, httptest.NewRequest(http.MethodGet, "/history?limit=250", nil))
		if !strings.Contains(body, `href="/history?limit=500"`) {
			t.Error("expected a show more link for a full page")
		}
		_, body = do(t, s, httptest.NewRequest(http.MethodGet, "/history?limit=500", nil))
		if strings.Contains(body, "Show more") {
			t.Error("expected no show more link at the row cap")
		}
	})

	t.Run("store failure", func(t *testing.T) {
		history := &memoryHistory{err: errors.New("down")}
		s, _ := testServer(t, service.WithHistory(history))
		rec, _ := do(t, s, httptest.NewRequest(http.MethodGet, "/history", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", rec.Code)
		}
	})
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := testServer(t)
	do(t, s, postForm("/recommend", exampleForm()))
	do(t, s, httptest.NewRequest(http.MethodGet, "/", nil))

	rec, body := do(t, s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	for _, want := range []string{
		`soilstab_http_requests_total{code="200",method="POST",route="/recommend"} 1`,
		`soilstab_http_requests_total{code="200",method="GET",route="/"} 1`,
		`soilstab_recommendations_total{`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected metrics to contain %q", want)
		}
	}
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", defaultHistoryLimit},
		{"limit=5", 5},
		{"limit=-1", defaultHistoryLimit},
		{"limit=abc", defaultHistoryLimit},
		{"limit=100000", maxHistoryLimit},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/history?"+tt.query, nil)
		if got := parseLimit(req); got != tt.want {
			t.Errorf("parseLimit(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}

func TestWriteJSON_UnencodableValue(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]float64{"strength": math.NaN()})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rec.Code)
	}
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON error body, got %q: %v", rec.Body.String(), err)
	}
	if body.Error == "" {
		t.Error("expected an error message")
	}
}

func TestNextHistoryLimit(t *testing.T) {
	tests := []struct {
		limit, rows, want int
	}{
		{20, 5, 0},
		{20, 20, 40},
		{300, 300, maxHistoryLimit},
		{maxHistoryLimit, maxHistoryLimit, 0},
	}
	for _, tt := range tests {
		if got := nextHistoryLimit(tt.limit, tt.rows); got != tt.want {
			t.Errorf("nextHistoryLimit(%d, %d) = %d, want %d", tt.limit, tt.rows, got, tt.want)
		}
	}
}
