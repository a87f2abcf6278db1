package synonym

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
)

type scriptedLLM struct {
	replies []string
	prompts []string
	err     error
}

func (s *scriptedLLM) Chat(_ context.Context, messages []openai.ChatCompletionMessage, _ []openai.Tool, _ float32) (openai.ChatCompletionMessage, error) {
	if s.err != nil {
		return openai.ChatCompletionMessage{}, s.err
	}
	s.prompts = append(s.prompts, messages[len(messages)-1].Content)
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: reply}, nil
}

func (s *scriptedLLM) Model() string { return "scripted" }

type memCache struct{ m map[string]string }

func (c *memCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := c.m[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.m[key] = value
	return nil
}

func TestFilterCandidates(t *testing.T) {
	got := FilterCandidates("인공지능", []string{"AI", "인공지능 기술", "머신러닝", "러닝", "AI", "딥러닝"})
	want := []string{"AI", "머신러닝", "딥러닝"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v want %#v", got, want)
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(` "AI", Artificial Intelligence ,, 머신러닝.`)
	want := []string{"AI", "Artificial Intelligence", "머신러닝"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v want %#v", got, want)
	}
}

func TestFindRunsThreePromptsAndTruncates(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		"AI, 인공지능 기술, 머신러닝, 딥러닝, 기계지능",
		"AI, 머신러닝, 딥러닝",
		"AI, 인공지능, 딥러닝, 머신러닝",
	}}
	cache := &memCache{m: map[string]string{}}
	f := NewFinder(llm, cache)

	got, err := f.Find(context.Background(), "인공지능", 3, "Korea")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	want := []string{"인공지능", "AI", "딥러닝"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v want %#v", got, want)
	}
	if len(llm.prompts) != 3 {
		t.Fatalf("expected 3 prompts, got %d", len(llm.prompts))
	}
	if !strings.Contains(llm.prompts[0], "commonly used in Korea") {
		t.Fatalf("country missing from generation prompt: %s", llm.prompts[0])
	}
	if !strings.Contains(llm.prompts[1], "AI, 머신러닝, 딥러닝, 기계지능") {
		t.Fatalf("filtered list missing from review prompt: %s", llm.prompts[1])
	}

	// second call is served from the cache
	again, err := f.Find(context.Background(), "인공지능", 5, "Korea")
	if err != nil {
		t.Fatalf("Find cached: %v", err)
	}
	if len(llm.prompts) != 3 || len(again) != 4 {
		t.Fatalf("expected cached result of 4 terms without new prompts, got %#v", again)
	}
}

func TestFindSingleTermSkipsLLM(t *testing.T) {
	llm := &scriptedLLM{err: errors.New("must not be called")}
	got, err := NewFinder(llm, nil).Find(context.Background(), " AI ", 1, "USA")
	if err != nil || !reflect.DeepEqual(got, []string{"AI"}) {
		t.Fatalf("got %#v, %v", got, err)
	}
}

func TestFindPropagatesLLMError(t *testing.T) {
	llm := &scriptedLLM{err: errors.New("quota")}
	if _, err := NewFinder(llm, nil).Find(context.Background(), "AI", 3, "USA"); err == nil {
		t.Fatalf("expected error")
	}
}
