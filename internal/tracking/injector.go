// Package tracking rewrites outgoing email bodies so opens and clicks can
// be attributed back to the attempt that produced them.
package tracking

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var hrefPattern = regexp.MustCompile(`(?i)href\s*=\s*"(https?://[^"]+)"`)

// Injector instruments HTML bodies with open and click tracking. The zero
// value disables injection; bodies pass through untouched.
type Injector struct {
	baseURL string
}

// NewInjector creates an Injector pointing at the public tracking host.
// baseURL has any trailing slash stripped.
func NewInjector(baseURL string) *Injector {
	return &Injector{baseURL: strings.TrimRight(baseURL, "/")}
}

// Enabled reports whether a tracking host is configured.
func (i *Injector) Enabled() bool {
	return i != nil && i.baseURL != ""
}

// Inject rewrites every absolute http(s) link into a click-tracking redirect
// and appends an open-tracking pixel. Relative links and mailto links are
// left alone.
func (i *Injector) Inject(body, attemptID string) string {
	if !i.Enabled() {
		return body
	}

	out := hrefPattern.ReplaceAllStringFunc(body, func(match string) string {
		sub := hrefPattern.FindStringSubmatch(match)
		target := sub[1]
		if strings.HasPrefix(target, i.baseURL+"/t/") {
			return match
		}
		return fmt.Sprintf(`href="%s/t/c/%s?u=%s"`, i.baseURL, attemptID, url.QueryEscape(target))
	})

	pixel := fmt.Sprintf(`<img src="%s/t/o/%s" width="1" height="1" alt="" style="display:none">`, i.baseURL, attemptID)
	if idx := strings.LastIndex(strings.ToLower(out), "</body>"); idx >= 0 {
		return out[:idx] + pixel + out[idx:]
	}
	return out + pixel
}
