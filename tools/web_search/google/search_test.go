package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mohammad-safakhou/briefer/utils"
)

func TestDiscoverPaginatesAndFiltersSites(t *testing.T) {
	var pages int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("sort") != "date" || q.Get("cx") != "cx1" || q.Get("dateRestrict") != "d3" {
			t.Errorf("unexpected query %v", q)
		}
		atomic.AddInt32(&pages, 1)
		start := q.Get("start")
		items := []map[string]string{}
		switch start {
		case "1":
			items = append(items,
				map[string]string{"title": " 첫 글 ", "link": "https://a.tistory.com/1"},
				map[string]string{"title": "뉴스", "link": "https://news.example.com/2"},
			)
		case "11":
			items = append(items,
				map[string]string{"title": "둘째 글", "link": "https://b.tistory.com/2"},
				map[string]string{"title": "셋째 글", "link": "https://c.tistory.com/3"},
			)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
	}))
	defer srv.Close()

	s := &Search{ApiKey: "k", CX: "cx1", Endpoint: srv.URL, HTTP: utils.NewHTTPClient(time.Second, 0, 0)}
	got, err := s.Discover(context.Background(), "인공지능", 2, []string{"tistory.com"}, 3)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d: %+v", len(got), got)
	}
	if got[0].Title != "첫 글" || got[1].URL != "https://b.tistory.com/2" {
		t.Fatalf("unexpected results %+v", got)
	}
	if atomic.LoadInt32(&pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", pages)
	}
}

func TestDiscoverStopsOnEmptyPage(t *testing.T) {
	var pages int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&pages, 1)
		if n == 1 {
			fmt.Fprint(w, `{"items":[{"title":"t","link":"https://x.tistory.com/1"}]}`)
			return
		}
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	s := &Search{Endpoint: srv.URL, HTTP: utils.NewHTTPClient(time.Second, 0, 0)}
	got, err := s.Discover(context.Background(), "ai", 20, nil, 0)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(got) != 1 || atomic.LoadInt32(&pages) != 2 {
		t.Fatalf("expected 1 result over 2 pages, got %d over %d", len(got), pages)
	}
}
