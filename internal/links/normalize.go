// Package links normalizes user-supplied context links, fetches their public
// pages and reduces them to short hiring-context signals.
package links

import (
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/weppos/publicsuffix-go/publicsuffix"

	"github.com/ZanzyTHEbar/hirescope/internal/types"
)

const (
	// DefaultMaxLinks caps how many links one request may carry
	DefaultMaxLinks = 8

	maxLabelChars   = 60
	defaultLabel    = "External Context"
	metadataAddress = "169.254.169.254"
)

var privateIPv4Prefix = regexp.MustCompile(`^(127\.|10\.|192\.168\.|172\.(1[6-9]|2\d|3[0-1])\.)`)

// Normalize keeps the first max inputs that parse as public http(s) URLs,
// filling a label from the host when none was given. Invalid entries are skipped.
func Normalize(inputs []types.ContextLinkInput, max int) []types.ContextLink {
	if max <= 0 {
		max = DefaultMaxLinks
	}
	if len(inputs) > max {
		inputs = inputs[:max]
	}

	out := make([]types.ContextLink, 0, len(inputs))
	for _, in := range inputs {
		raw := strings.TrimSpace(in.URL)
		if raw == "" {
			continue
		}

		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			continue
		}
		scheme := strings.ToLower(u.Scheme)
		if scheme != "http" && scheme != "https" {
			continue
		}
		host := strings.ToLower(u.Hostname())
		if BlockedHost(host) {
			continue
		}

		u.Scheme = scheme
		u.Host = strings.ToLower(u.Host)
		if u.Path == "" {
			u.Path = "/"
		}

		label := strings.TrimSpace(in.Label)
		if label == "" {
			label = hostLabel(host)
		}
		out = append(out, types.ContextLink{
			Label: truncate(label, maxLabelChars),
			URL:   u.String(),
		})
	}
	return out
}

// BlockedHost reports hosts that must never be fetched: loopback, private
// ranges, link-local addresses and the cloud metadata endpoint.
func BlockedHost(host string) bool {
	host = strings.Trim(strings.ToLower(host), "[]")
	switch host {
	case "localhost", "0.0.0.0", "::1", metadataAddress:
		return true
	}
	if privateIPv4Prefix.MatchString(host) {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return blockedIP(ip)
	}
	return false
}

func blockedIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsUnspecified()
}

func hostLabel(host string) string {
	seed := strings.Split(strings.TrimPrefix(host, "www."), ".")[0]
	if seed == "" {
		return defaultLabel
	}
	return seed
}

// IsLinkedIn reports whether rawURL points at linkedin.com or one of its subdomains
func IsLinkedIn(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Hostname() == "" {
		return strings.Contains(strings.ToLower(rawURL), "linkedin.com")
	}
	domain, err := publicsuffix.Domain(strings.ToLower(u.Hostname()))
	if err != nil {
		return false
	}
	return domain == "linkedin.com"
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
