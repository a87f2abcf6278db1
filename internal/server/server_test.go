package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mohammad-safakhou/briefer/internal/agent"
	"github.com/mohammad-safakhou/briefer/internal/index"
	"github.com/mohammad-safakhou/briefer/models"
)

type briefingStub struct {
	gotPrompt  string
	gotN       int
	gotCountry string
	result     models.Briefing
	err        error
	saved      map[string]models.Briefing
}

func (s *briefingStub) Brief(ctx context.Context, prompt string, n int, country string) (models.Briefing, error) {
	s.gotPrompt, s.gotN, s.gotCountry = prompt, n, country
	return s.result, s.err
}

func (s *briefingStub) List(ctx context.Context, limit int) ([]models.BriefingSummary, error) {
	var out []models.BriefingSummary
	for _, b := range s.saved {
		out = append(out, b.Summary())
	}
	return out, nil
}

func (s *briefingStub) Get(ctx context.Context, id string) (models.Briefing, error) {
	b, ok := s.saved[id]
	if !ok {
		return models.Briefing{}, models.ErrBriefingNotFound
	}
	return b, nil
}

type chatStub struct {
	reply string
	err   error
}

func (s chatStub) Reply(ctx context.Context, message string, history []agent.Turn) (string, error) {
	return s.reply, s.err
}

type indexStub struct {
	n   int
	err error
}

func (s indexStub) Rebuild(ctx context.Context) (int, error) { return s.n, s.err }

func do(t *testing.T, d Deps, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	e, err := New(d)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := do(t, Deps{}, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected healthz: %d %q", rec.Code, rec.Body.String())
	}
}

func TestIndexPageRendersCountries(t *testing.T) {
	rec := do(t, Deps{}, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	for _, c := range Countries {
		if !strings.Contains(rec.Body.String(), fmt.Sprintf(`value="%s"`, c)) {
			t.Fatalf("missing country %s", c)
		}
	}
	if !strings.Contains(rec.Body.String(), `max="5"`) {
		t.Fatalf("expected synonym slider")
	}
}

func TestCreateBriefing(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	stub := &briefingStub{result: models.Briefing{ID: "b1", Prompt: "AI 뉴스", CreatedAt: now, Items: []models.Item{{Title: "t", URL: "https://x", Summary: "s"}}}}
	rec := do(t, Deps{Briefings: stub}, http.MethodPost, "/api/briefings", `{"prompt":"<b>AI</b> 뉴스","country":"japan","synonym_range":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if stub.gotPrompt != "AI 뉴스" || stub.gotN != 2 || stub.gotCountry != "Japan" {
		t.Fatalf("unexpected call: %q %d %q", stub.gotPrompt, stub.gotN, stub.gotCountry)
	}
	var resp briefingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Saved || len(resp.Items) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestCreateBriefingDefaults(t *testing.T) {
	stub := &briefingStub{}
	rec := do(t, Deps{Briefings: stub, DefaultCountry: "USA", DefaultRange: 4}, http.MethodPost, "/api/briefings", `{"prompt":"chips"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if stub.gotN != 4 || stub.gotCountry != "USA" {
		t.Fatalf("defaults not applied: %d %q", stub.gotN, stub.gotCountry)
	}
	if !strings.Contains(rec.Body.String(), `"saved":false`) {
		t.Fatalf("expected unsaved briefing: %s", rec.Body.String())
	}
}

func TestCreateBriefingValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"empty prompt", `{"prompt":"   "}`},
		{"markup only", `{"prompt":"<script>x</script>"}`},
		{"range too high", `{"prompt":"ai","synonym_range":6}`},
		{"range negative", `{"prompt":"ai","synonym_range":-1}`},
		{"unknown country", `{"prompt":"ai","country":"Mars"}`},
		{"bad json", `{"prompt":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, Deps{Briefings: &briefingStub{}}, http.MethodPost, "/api/briefings", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] == "" {
				t.Fatalf("expected json error body, got %s", rec.Body.String())
			}
		})
	}
}

func TestCreateBriefingAgentError(t *testing.T) {
	rec := do(t, Deps{Briefings: &briefingStub{err: errors.New("llm down")}}, http.MethodPost, "/api/briefings", `{"prompt":"ai"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "llm down") {
		t.Fatalf("expected error message, got %s", rec.Body.String())
	}
}

func TestGetAndListBriefings(t *testing.T) {
	stub := &briefingStub{saved: map[string]models.Briefing{"b1": {ID: "b1", Prompt: "p", Items: []models.Item{{Title: "a"}, {Title: "b"}}}}}
	rec := do(t, Deps{Briefings: stub}, http.MethodGet, "/api/briefings/b1", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"id":"b1"`) {
		t.Fatalf("get: %d %s", rec.Code, rec.Body.String())
	}
	rec = do(t, Deps{Briefings: stub}, http.MethodGet, "/api/briefings/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	rec = do(t, Deps{Briefings: stub}, http.MethodGet, "/api/briefings", "")
	var list []models.BriefingSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0].Items != 2 {
		t.Fatalf("unexpected list: %+v", list)
	}
	rec = do(t, Deps{}, http.MethodGet, "/api/briefings", "")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected empty list, got %s", rec.Body.String())
	}
}

func TestChat(t *testing.T) {
	rec := do(t, Deps{Chat: chatStub{reply: "안녕하세요"}}, http.MethodPost, "/api/chat", `{"message":"hi","history":[{"user":"a","assistant":"b"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var resp chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Reply != "안녕하세요" || len(resp.History) != 2 || resp.History[1].User != "hi" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestChatErrorBecomesReply(t *testing.T) {
	rec := do(t, Deps{Chat: chatStub{err: errors.New("boom")}}, http.MethodPost, "/api/chat", `{"message":"hi"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "❌ 오류 발생: boom") {
		t.Fatalf("expected error reply, got %s", rec.Body.String())
	}
	rec = do(t, Deps{Chat: chatStub{}}, http.MethodPost, "/api/chat", `{"message":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty message, got %d", rec.Code)
	}
}

func TestRebuildIndex(t *testing.T) {
	rec := do(t, Deps{Index: indexStub{n: 12}}, http.MethodPost, "/api/index/rebuild", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"chunks":12`) {
		t.Fatalf("rebuild: %d %s", rec.Code, rec.Body.String())
	}
	rec = do(t, Deps{Index: indexStub{err: index.ErrEmptyCorpus}}, http.MethodPost, "/api/index/rebuild", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "warning") {
		t.Fatalf("empty corpus: %d %s", rec.Code, rec.Body.String())
	}
	rec = do(t, Deps{}, http.MethodPost, "/api/index/rebuild", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestMetricsDisabled(t *testing.T) {
	rec := do(t, Deps{}, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 with metrics disabled, got %d", rec.Code)
	}
}
