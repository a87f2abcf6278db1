package arxiv

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mohammad-safakhou/briefer/utils"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>ArXiv Query</title>
  <id>http://arxiv.org/api/q</id>
  <updated>2025-05-02T00:00:00Z</updated>
  <entry>
    <id>http://arxiv.org/abs/2505.00001v1</id>
    <published>2025-05-01T12:00:00Z</published>
    <updated>2025-05-01T12:00:00Z</updated>
    <title>Scaling Laws for
      Retrieval Models</title>
    <summary>abstract</summary>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2504.09999v2</id>
    <published>2025-04-20T12:00:00Z</published>
    <updated>2025-04-20T12:00:00Z</updated>
    <title>Old Paper</title>
    <summary>abstract</summary>
  </entry>
</feed>`

func TestRecentFiltersByPublishedDate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.RawQuery, "search_query=all:large+language+model") {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if r.URL.Query().Get("sortBy") != "submittedDate" || r.URL.Query().Get("max_results") != "2" {
			t.Errorf("unexpected params %v", r.URL.Query())
		}
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(feedXML))
	}))
	defer srv.Close()

	c := &Client{
		Endpoint: srv.URL,
		HTTP:     utils.NewHTTPClient(time.Second, 0, 0),
		Now:      func() time.Time { return time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC) },
	}
	papers, err := c.Recent(context.Background(), "large language model", 3, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(papers) != 1 {
		t.Fatalf("expected 1 recent paper, got %+v", papers)
	}
	p := papers[0]
	if p.ID != "2505.00001v1" || p.PDFURL != "https://arxiv.org/pdf/2505.00001v1.pdf" {
		t.Fatalf("unexpected paper %+v", p)
	}
	if p.Title != "Scaling Laws for Retrieval Models" {
		t.Fatalf("title newlines should collapse, got %q", p.Title)
	}
}
