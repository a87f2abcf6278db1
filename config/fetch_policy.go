package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// FetchPolicyConfig decides which hosts count as blogs and which are never fetched.
type FetchPolicyConfig struct {
	BlogDomains []string `mapstructure:"blog_domains"`
	Disallow    []string `mapstructure:"disallow"`
}

// Normalize cleans entries and removes duplicates.
func (c FetchPolicyConfig) Normalize() FetchPolicyConfig {
	norm := c
	norm.BlogDomains = sanitizeDomainList(norm.BlogDomains)
	if len(norm.BlogDomains) == 0 {
		norm.BlogDomains = []string{"tistory.com"}
	}
	norm.Disallow = sanitizeDomainList(norm.Disallow)
	return norm
}

// Validate rejects a host that is both a blog domain and disallowed.
func (c FetchPolicyConfig) Validate() error {
	norm := c.Normalize()
	disallow := make(map[string]struct{}, len(norm.Disallow))
	for _, host := range norm.Disallow {
		disallow[host] = struct{}{}
	}
	for _, host := range norm.BlogDomains {
		if _, ok := disallow[host]; ok {
			return fmt.Errorf("fetch policy conflict: host %q present in both blog_domains and disallow lists", host)
		}
	}
	return nil
}

// Allowed reports whether rawURL may be fetched.
func (c FetchPolicyConfig) Allowed(rawURL string) bool {
	host := normalizeHost(rawURL)
	if host == "" {
		return false
	}
	for _, d := range c.Disallow {
		if matchesDomain(host, d) {
			return false
		}
	}
	return true
}

// IsBlog reports whether rawURL is hosted on one of the blog domains.
func (c FetchPolicyConfig) IsBlog(rawURL string) bool {
	host := normalizeHost(rawURL)
	if host == "" {
		return false
	}
	for _, d := range c.BlogDomains {
		if matchesDomain(host, d) {
			return true
		}
	}
	return false
}

func matchesDomain(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func sanitizeDomainList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	for _, raw := range values {
		host := normalizeHost(raw)
		if host == "" {
			continue
		}
		seen[host] = struct{}{}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for host := range seen {
		out = append(out, host)
	}
	sort.Strings(out)
	return out
}

func normalizeHost(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return ""
	}
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		u, err := url.Parse(value)
		if err != nil || u.Host == "" {
			return ""
		}
		value = u.Hostname()
	}
	return strings.TrimPrefix(value, "www.")
}
