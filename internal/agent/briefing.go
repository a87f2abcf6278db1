package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/mohammad-safakhou/briefer/internal/pipeline"
	"github.com/mohammad-safakhou/briefer/internal/telemetry"
	"github.com/mohammad-safakhou/briefer/models"
	"github.com/mohammad-safakhou/briefer/provider"
	"github.com/sashabaranov/go-openai"
)

const DefaultRefusal = "죄송합니다. 현재 뉴스, 블로그, 논문에 대한 요청만 처리할 수 있습니다."

const briefingSystem = `너는 뉴스, 블로그, 논문 자료를 크롤링하고 요약하는 AI 에이전트야.
사용자의 요청이 뉴스, 블로그, 논문 중 하나라도 포함되면 적절한 툴을 실행해야 해.
하지만 요청이 이 세 가지와 관련이 없다면 절대 툴을 실행하지 말고 이렇게 답해야 해:

"%s"

툴 결과를 정리할 때는 항목마다 다음 형식의 번호 목록을 사용해:
1. **[제목](URL)**
 - 요약`

var crawlTools = []struct {
	name string
	kind models.Kind
	desc string
}{
	{"crawl_news", models.KindNews, "뉴스를 크롤링하고 요약하는 파이프라인. 사용자가 '뉴스', '기사', '보도', 'news' 등의 키워드로 요청할 때 사용합니다."},
	{"crawl_blog", models.KindBlog, "블로그 글을 크롤링하고 요약하는 파이프라인. 사용자가 '블로그', 'blog', '블로그 글', '블로그 요약' 요청 시 사용합니다."},
	{"crawl_papers", models.KindPaper, "논문을 크롤링하고 요약하는 파이프라인. 사용자가 '논문', '학술자료', 'paper', '논문 요약' 요청 시 사용합니다."},
}

var crawlSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"keyword": map[string]any{"type": "string", "minLength": 1, "description": "search keyword"},
		"days":    map[string]any{"type": "integer", "minimum": 1, "maximum": 30, "description": "how many days back to search"},
	},
	"required":             []string{"keyword", "days"},
	"additionalProperties": false,
}

// BriefingResult is the agent's final text and the items its tools produced.
type BriefingResult struct {
	Answer  string
	Items   []models.Item
	Refused bool
}

// BriefingAgent routes a free-form request to the crawl pipelines.
type BriefingAgent struct {
	LLM           provider.LLM
	Pipelines     pipeline.Set
	MaxIterations int
	DefaultDays   int
	Refusal       string
	Metrics       *telemetry.Metrics
	Logger        *log.Logger
}

// Run handles one request. n (synonym range) and country come from the caller
// and are bound into every tool call; the model only picks keyword and days.
func (a *BriefingAgent) Run(ctx context.Context, prompt string, n int, country string) (BriefingResult, error) {
	refusal := a.Refusal
	if refusal == "" {
		refusal = DefaultRefusal
	}
	var (
		mu    sync.Mutex
		items []models.Item
	)
	var tools []Tool
	for _, ct := range crawlTools {
		p, ok := a.Pipelines[ct.kind]
		if !ok {
			continue
		}
		tools = append(tools, Tool{
			Name:        ct.name,
			Description: ct.desc,
			Parameters:  crawlSchema,
			Run: func(ctx context.Context, args map[string]any) (string, error) {
				req := pipeline.Request{
					Keyword: stringArg(args, "keyword"),
					Days:    intArg(args, "days", a.DefaultDays),
					N:       n,
					Country: country,
				}
				got, err := p.Run(ctx, req)
				if err != nil {
					return "", err
				}
				mu.Lock()
				items = append(items, got...)
				mu.Unlock()
				return toolReport(got)
			},
		})
	}
	tb, err := NewToolbox(tools...)
	if err != nil {
		return BriefingResult{}, err
	}
	runner := &Runner{
		LLM:           a.LLM,
		Tools:         tb,
		MaxIterations: a.MaxIterations,
		Temperature:   0,
		Metrics:       a.Metrics,
		Logger:        a.Logger,
	}
	answer, err := runner.Run(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(briefingSystem, refusal)},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	})
	a.Metrics.Briefing(err)
	if err != nil {
		return BriefingResult{}, err
	}

	res := BriefingResult{Answer: answer, Items: items}
	if len(res.Items) == 0 {
		res.Items = ParseNewsOutput(answer)
	}
	res.Refused = len(res.Items) == 0 && strings.Contains(answer, refusal)
	return res, nil
}

type reportItem struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Published string `json:"published_at,omitempty"`
	Summary   string `json:"summary"`
}

func toolReport(items []models.Item) (string, error) {
	if len(items) == 0 {
		return "No results found.", nil
	}
	out := make([]reportItem, len(items))
	for i, it := range items {
		out[i] = reportItem{Title: it.Title, URL: it.URL, Summary: it.Summary}
		if it.PublishedAt != nil {
			out[i].Published = it.PublishedAt.Format("2006-01-02")
		}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
