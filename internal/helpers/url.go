package helpers

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"net/url"
	"path"
	"sort"
	"strings"
)

// Query parameters that only track the click and never select content.
// Portal news links and blog share buttons add most of them.
var trackingParams = map[string]bool{
	"gclid": true, "dclid": true, "fbclid": true, "msclkid": true, "igshid": true,
	"ref": true, "ref_src": true, "cmpid": true, "from": true, "rss": true,
	"category_type": true, "t_src": true,
}

func isTracking(key string) bool {
	key = strings.ToLower(key)
	return strings.HasPrefix(key, "utm_") || trackingParams[key]
}

// CanonicalURL normalizes a link so the same article reached through
// different share links compares equal. Scheme defaults to https.
func CanonicalURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty url")
	}
	u, err := parseLoose(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", errors.New("url missing host")
	}
	if port := u.Port(); port != "" && !(u.Scheme == "http" && port == "80") && !(u.Scheme == "https" && port == "443") {
		host += ":" + port
	}
	u.Host = host

	p := path.Clean("/" + u.Path)
	if p != "/" && strings.HasSuffix(u.Path, "/") {
		p += "/"
	}
	u.Path = p
	u.RawPath = ""
	u.Fragment = ""

	q := u.Query()
	for key, values := range q {
		if isTracking(key) {
			q.Del(key)
			continue
		}
		sort.Strings(values)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// URLFingerprint is the sha1 hex digest of the canonical URL. It keys the
// fetch cache.
func URLFingerprint(raw string) (string, error) {
	c, err := CanonicalURL(raw)
	if err != nil {
		return "", err
	}
	sum := sha1.Sum([]byte(c))
	return hex.EncodeToString(sum[:]), nil
}

// DedupKey is the canonical URL, or the trimmed input when it cannot be parsed.
func DedupKey(raw string) string {
	if c, err := CanonicalURL(raw); err == nil {
		return c
	}
	return strings.TrimSpace(raw)
}

func parseLoose(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "" || u.Host != "" {
		return u, nil
	}
	if strings.HasPrefix(raw, "//") {
		return url.Parse("https:" + raw)
	}
	return url.Parse("https://" + raw)
}
