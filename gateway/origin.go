package gateway

import (
	"net/url"
	"strings"
)

// OriginPolicy is the cross-origin allow-list: exact origins plus hostname
// suffix wildcards for the hosting platform's preview and editor domains.
type OriginPolicy struct {
	exact    map[string]bool
	suffixes []string
}

func NewOriginPolicy(exact, suffixes []string) *OriginPolicy {
	p := &OriginPolicy{exact: make(map[string]bool, len(exact))}
	for _, o := range exact {
		p.exact[strings.ToLower(strings.TrimRight(o, "/"))] = true
	}
	for _, s := range suffixes {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if !strings.HasPrefix(s, ".") {
			s = "." + s
		}
		p.suffixes = append(p.suffixes, s)
	}
	return p
}

// Allowed checks an Origin header value (or the Referer fallback) against
// the policy. Requests failing this check never reach a downstream
// component.
func (p *OriginPolicy) Allowed(origin string) bool {
	origin = strings.ToLower(strings.TrimSpace(strings.TrimRight(origin, "/")))
	if origin == "" {
		return false
	}
	if p.exact[origin] {
		return true
	}

	u, err := url.Parse(origin)
	if err != nil || u.Hostname() == "" {
		return false
	}
	host := u.Hostname()
	for _, suffix := range p.suffixes {
		if strings.HasSuffix(host, suffix) {
			return true
		}
	}
	return false
}
