package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/mohammad-safakhou/briefer/config"
	"github.com/mohammad-safakhou/briefer/utils"
)

// wordCounter counts whitespace separated words, which keeps budgets readable in tests.
type wordCounter struct{}

func (wordCounter) Count(text string) int { return len(strings.Fields(text)) }

type recordingModel struct {
	inputs []string
	fn     func(string) string
}

func (m *recordingModel) Summarize(_ context.Context, text string) (string, error) {
	m.inputs = append(m.inputs, text)
	if m.fn != nil {
		return m.fn(text), nil
	}
	return "S" + string(rune('0'+len(m.inputs))) + ".", nil
}

type fixedEmbedder struct{ vecs [][]float32 }

func (f fixedEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	return f.vecs[:len(texts)], nil
}
func (fixedEmbedder) Model() string { return "fixed" }

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("첫 문장입니다. 둘째! 셋째?  넷째 3.5% 상승")
	want := []string{"첫 문장입니다.", "둘째!", "셋째?", "넷째 3.5% 상승"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v want %#v", got, want)
	}
	if SplitSentences("   ") != nil {
		t.Fatalf("blank text should yield no sentences")
	}
}

func TestGroupByTokenLimit(t *testing.T) {
	sentences := []string{"a b.", "c d.", "e f g h i j.", "k."}
	got := GroupByTokenLimit(sentences, wordCounter{}, 4)
	want := []string{"a b. c d.", "e f g h i j.", "k."}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v want %#v", got, want)
	}
}

func TestExtractKeywordSentences(t *testing.T) {
	text := "AI 기업이 성장했다. 날씨가 맑다. 인공지능 투자가 늘었다"
	got := ExtractKeywordSentences(text, []string{"AI", "인공지능"})
	if got != "AI 기업이 성장했다.  인공지능 투자가 늘었다" {
		t.Fatalf("unexpected %q", got)
	}
	if ExtractKeywordSentences(text, []string{"반도체"}) != text {
		t.Fatalf("expected fallback to full text")
	}
}

func TestRemoveDuplicateSentences(t *testing.T) {
	got := RemoveDuplicateSentences("가격이 올랐다. 가격이 올랐다. 수요가 늘었다.")
	if got != "가격이 올랐다. 수요가 늘었다" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestHeuristicCounter(t *testing.T) {
	c := HeuristicCounter{}
	if got := c.Count("hello world"); got != 4 {
		t.Fatalf("ascii words: got %d", got)
	}
	if got := c.Count("인공지능."); got != 5 {
		t.Fatalf("hangul: got %d", got)
	}
}

func TestSummarizeSingleChunkReturnsDirectly(t *testing.T) {
	m := &recordingModel{fn: func(string) string { return "요약\n결과" }}
	h := NewHierarchical(m, 100, 2)
	h.Counter = wordCounter{}
	got, err := h.Summarize(context.Background(), "짧은 본문입니다.", Options{})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got != "요약 결과" || len(m.inputs) != 1 {
		t.Fatalf("got %q after %d calls", got, len(m.inputs))
	}
}

func TestSummarizeCombinesChunkSummaries(t *testing.T) {
	m := &recordingModel{}
	h := NewHierarchical(m, 3, 2)
	h.Counter = wordCounter{}
	got, err := h.Summarize(context.Background(), "a b c. d e f.", Options{})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	// two chunk summaries, then one summary of their join
	if len(m.inputs) != 3 || m.inputs[2] != "S1. S2." {
		t.Fatalf("unexpected model inputs %#v", m.inputs)
	}
	if got != "S3." {
		t.Fatalf("unexpected final %q", got)
	}
}

func TestSummarizeStopsAtDepthLimit(t *testing.T) {
	m := &recordingModel{fn: func(string) string { return "x y." }}
	h := NewHierarchical(m, 3, 1)
	h.Counter = wordCounter{}
	got, err := h.Summarize(context.Background(), "a b c. d e f.", Options{})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got != "x y. x y." || len(m.inputs) != 2 {
		t.Fatalf("expected combined summaries after %d calls, got %q", len(m.inputs), got)
	}
}

func TestSummarizeResplitsOnce(t *testing.T) {
	m := &recordingModel{fn: func(text string) string {
		switch {
		case strings.HasPrefix(text, "m"):
			return "z."
		case strings.HasPrefix(text, "z"):
			return "done."
		}
		return "m n."
	}}
	h := NewHierarchical(m, 3, 2)
	h.Counter = wordCounter{}
	got, err := h.Summarize(context.Background(), "a b c. d e f.", Options{})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	// "m n. m n." exceeds the budget, so it is split again into two chunks
	// whose summaries "z. z." fit and get summarized once more.
	if got != "done." || len(m.inputs) != 5 {
		t.Fatalf("unexpected final %q (inputs %#v)", got, m.inputs)
	}
}

func TestSummarizeDedupeAndFocus(t *testing.T) {
	m := &recordingModel{fn: func(text string) string { return text + ". " + text }}
	h := NewHierarchical(m, 100, 2)
	h.Counter = wordCounter{}
	got, err := h.Summarize(context.Background(), "AI 뉴스. 날씨. AI 투자", Options{FocusKeywords: []string{"AI"}, Dedupe: true})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if m.inputs[0] != "AI 뉴스. AI 투자" {
		t.Fatalf("focus not applied: %q", m.inputs[0])
	}
	if got != "AI 뉴스. AI 투자" {
		t.Fatalf("dedupe not applied: %q", got)
	}
}

func TestSummarizeRelevanceFilter(t *testing.T) {
	m := &recordingModel{fn: func(string) string { return "무관한 요약." }}
	h := NewHierarchical(m, 100, 2)
	h.Threshold = 0.1
	h.Embedder = fixedEmbedder{vecs: [][]float32{{1, 0}, {0, 1}}}
	_, err := h.Summarize(context.Background(), "본문.", Options{RelevanceKeyword: "AI"})
	if !errors.Is(err, ErrNotRelevant) {
		t.Fatalf("expected ErrNotRelevant, got %v", err)
	}

	h.Embedder = fixedEmbedder{vecs: [][]float32{{1, 1}, {1, 0}}}
	if _, err := h.Summarize(context.Background(), "본문.", Options{RelevanceKeyword: "AI"}); err != nil {
		t.Fatalf("expected relevant summary, got %v", err)
	}
}

func TestSummarizeEmptyText(t *testing.T) {
	h := NewHierarchical(&recordingModel{}, 100, 2)
	if _, err := h.Summarize(context.Background(), "  ", Options{}); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
}

func TestSummarizeTranslates(t *testing.T) {
	m := &recordingModel{fn: func(string) string { return "An English summary." }}
	tr := &recordingModel{fn: func(string) string { return "한국어 요약." }}
	h := NewHierarchical(m, 100, 2)
	h.Translator = tr
	got, err := h.Summarize(context.Background(), "Body text.", Options{})
	if err != nil || got != "한국어 요약." {
		t.Fatalf("got %q, %v", got, err)
	}
	if tr.inputs[0] != "An English summary." {
		t.Fatalf("translator input %q", tr.inputs[0])
	}
}

func TestTruncateTokens(t *testing.T) {
	if got := truncateTokens(wordCounter{}, "a b c d", 2); got != "a b " {
		t.Fatalf("unexpected %q", got)
	}
}

func TestHuggingFaceSummarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/digit82/kobart-summarization" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body struct {
			Inputs     string                  `json:"inputs"`
			Parameters config.GenerationConfig `json:"parameters"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Parameters.NumBeams != 4 || body.Parameters.RepetitionPenalty != 2.0 {
			t.Errorf("generation parameters not sent: %+v", body.Parameters)
		}
		_, _ = w.Write([]byte(`[{"summary_text":" 요약문 "}]`))
	}))
	defer srv.Close()

	h := &HuggingFace{
		Endpoint:   srv.URL,
		ModelID:    "digit82/kobart-summarization",
		Parameters: config.GenerationConfig{MaxLength: 700, MinLength: 100, NumBeams: 4, NoRepeatNgramSize: 3, RepetitionPenalty: 2.0, LengthPenalty: 1.0},
		HTTP:       utils.NewHTTPClient(time.Second, 0, 0),
	}
	got, err := h.Summarize(context.Background(), "본문")
	if err != nil || got != "요약문" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestHuggingFaceTranslation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"translation_text":"번역"}]`))
	}))
	defer srv.Close()

	h := &HuggingFace{Endpoint: srv.URL, ModelID: "KETI-AIR/ke-t5-base-en-ko", HTTP: utils.NewHTTPClient(time.Second, 0, 0)}
	if got, err := h.Summarize(context.Background(), "text"); err != nil || got != "번역" {
		t.Fatalf("got %q, %v", got, err)
	}
}
