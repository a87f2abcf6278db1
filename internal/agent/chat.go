package agent

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/mohammad-safakhou/briefer/internal/telemetry"
	"github.com/mohammad-safakhou/briefer/models"
	"github.com/mohammad-safakhou/briefer/provider"
	"github.com/mohammad-safakhou/briefer/tools/web_search"
	"github.com/sashabaranov/go-openai"
)

const summarizerSystem = "너는 AI 전문가로서 사용자의 질문에 정확하고 친절하게 답변하는 도우미야. Final Answer는 반드시 %s(으)로 작성해. " +
	"벡터 DB의 검색 결과가 없거나 문서가 부족하면 직접 답하거나 적절한 요약을 제공해줘."

const chatSystem = "You are the Daily AI Briefing assistant. Use news_query_tool, blog_query_tool and paper_query_tool " +
	"for questions about the collected news, blog posts and papers, web_search for real-time information, " +
	"and text_summarizer to summarize or answer from general knowledge. Always write the final answer in %s."

var queryTools = []struct {
	name string
	kind models.Kind
	desc string
}{
	{"news_query_tool", models.KindNews, "뉴스 관련 질의"},
	{"blog_query_tool", models.KindBlog, "블로그 관련 질의"},
	{"paper_query_tool", models.KindPaper, "논문 관련 질의"},
}

var queryParam = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"query": map[string]any{"type": "string", "minLength": 1},
	},
	"required": []string{"query"},
}

// Answerer answers a question from one source of the index.
type Answerer interface {
	Answer(ctx context.Context, query string, source models.Kind) (string, error)
}

// Turn is one exchange of the chat history.
type Turn struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// ChatAgent answers questions over the indexed briefings and the web.
type ChatAgent struct {
	LLM           provider.LLM
	Retriever     Answerer
	Web           web_search.WebSearcher
	WebResults    int
	Language      string
	MaxIterations int
	Temperature   float32
	Metrics       *telemetry.Metrics
	Logger        *log.Logger

	toolsOnce sync.Once
	tools     *Toolbox
	toolsErr  error
}

func (a *ChatAgent) toolbox() (*Toolbox, error) {
	a.toolsOnce.Do(func() { a.tools, a.toolsErr = a.buildTools() })
	return a.tools, a.toolsErr
}

func (a *ChatAgent) buildTools() (*Toolbox, error) {
	var tools []Tool
	if a.Retriever != nil {
		for _, qt := range queryTools {
			kind := qt.kind
			tools = append(tools, Tool{
				Name:        qt.name,
				Description: qt.desc,
				Parameters:  queryParam,
				Run: func(ctx context.Context, args map[string]any) (string, error) {
					return a.Retriever.Answer(ctx, stringArg(args, "query"), kind)
				},
			})
		}
	}
	tools = append(tools, Tool{
		Name:        "text_summarizer",
		Description: "문맥 요약",
		Parameters:  queryParam,
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			return provider.Ask(ctx, a.LLM, fmt.Sprintf(summarizerSystem, a.language()), stringArg(args, "query"), 0.1)
		},
	})
	if a.Web != nil {
		tools = append(tools, Tool{
			Name:        "web_search",
			Description: "실시간 웹 검색",
			Parameters:  queryParam,
			Run:         a.webSearch,
		})
	}
	return NewToolbox(tools...)
}

func (a *ChatAgent) webSearch(ctx context.Context, args map[string]any) (string, error) {
	k := a.WebResults
	if k <= 0 {
		k = 3
	}
	results, err := a.Web.Discover(ctx, stringArg(args, "query"), k, nil, 0)
	if err != nil || len(results) == 0 {
		if err != nil {
			a.logger().Printf("web search failed: %v", err)
		}
		return "❌ 검색 결과를 불러오는 데 실패했습니다.", nil
	}
	if len(results) > k {
		results = results[:k]
	}
	return "🌐 아래 정보는 웹 검색 결과를 기반으로 합니다:\n\n" + web_search.FormatMarkdown(results), nil
}

// Reply answers message given the prior turns.
func (a *ChatAgent) Reply(ctx context.Context, message string, history []Turn) (string, error) {
	tb, err := a.toolbox()
	if err != nil {
		return "", err
	}
	msgs := []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(chatSystem, a.language())}}
	for _, t := range history {
		if strings.TrimSpace(t.User) != "" {
			msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: t.User})
		}
		if strings.TrimSpace(t.Assistant) != "" {
			msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: t.Assistant})
		}
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: message})
	runner := &Runner{
		LLM:           a.LLM,
		Tools:         tb,
		MaxIterations: a.MaxIterations,
		Temperature:   a.Temperature,
		Metrics:       a.Metrics,
		Logger:        a.logger(),
	}
	return runner.Run(ctx, msgs)
}

// ErrorReply is what the chat surfaces show when Reply fails.
func ErrorReply(err error) string {
	return "❌ 오류 발생: " + err.Error()
}

func (a *ChatAgent) language() string {
	if a.Language == "" {
		return "Korean"
	}
	return a.Language
}

var chatLogger = log.New(log.Writer(), "[CHAT] ", log.LstdFlags)

func (a *ChatAgent) logger() *log.Logger {
	if a.Logger == nil {
		return chatLogger
	}
	return a.Logger
}
