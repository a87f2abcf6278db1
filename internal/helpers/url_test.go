package helpers

import (
	"strings"
	"testing"
)

func TestCanonicalURL(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "defaults https and cleans path",
			in:   "Someone.Tistory.com/entry/../123",
			want: "https://someone.tistory.com/123",
		},
		{
			name: "removes default port and tracking params",
			in:   "http://news.example.co.kr:80/article?id=123&utm_source=rss#section",
			want: "http://news.example.co.kr/article?id=123",
		},
		{
			name: "sorts query parameters and preserves trailing slash",
			in:   "https://blog.example.com/post/?b=2&a=1&fbclid=xyz",
			want: "https://blog.example.com/post/?a=1&b=2",
		},
		{
			name: "drops portal share params and keeps non-default port",
			in:   "https://News.Example.com:8443/a/b/?from=main&ref=share&sid=105",
			want: "https://news.example.com:8443/a/b/?sid=105",
		},
		{
			name: "handles schemeless url with double slash",
			in:   "//arxiv.org/pdf/2401.00001v1.pdf?utm_medium=email",
			want: "https://arxiv.org/pdf/2401.00001v1.pdf",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanonicalURL(tt.in)
			if err != nil {
				t.Fatalf("CanonicalURL() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("CanonicalURL() got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCanonicalURLErrors(t *testing.T) {
	t.Parallel()
	if _, err := CanonicalURL(""); err == nil {
		t.Fatalf("expected error for empty input")
	}
	if _, err := CanonicalURL(":///invalid"); err == nil {
		t.Fatalf("expected error for malformed url")
	}
}

func TestURLFingerprintIsSHA1OfCanonical(t *testing.T) {
	t.Parallel()
	url := "https://Example.com/Article?utm_campaign=foo&a=1"
	fp1, err := URLFingerprint(url)
	if err != nil {
		t.Fatalf("URLFingerprint: %v", err)
	}
	fp2, err := URLFingerprint(strings.ReplaceAll(url, "https://", "HTTPS://"))
	if err != nil {
		t.Fatalf("URLFingerprint: %v", err)
	}
	if len(fp1) != 40 || fp1 != fp2 {
		t.Fatalf("expected equal 40-char fingerprints, got %s vs %s", fp1, fp2)
	}
}

func TestDedupKey(t *testing.T) {
	t.Parallel()
	a := DedupKey("https://a.tistory.com/1?utm_source=x")
	b := DedupKey("https://a.tistory.com/1")
	if a != b {
		t.Fatalf("expected tracking params to be ignored: %q vs %q", a, b)
	}
	if got := DedupKey("  "); got != "" {
		t.Fatalf("expected empty key, got %q", got)
	}
}
