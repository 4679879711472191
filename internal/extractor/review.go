package extractor

import (
	"net/url"
	"strings"
)

const digitizationSuffix = " - New Digitization"

// CleanFundName drops the " - New Digitization" suffix used in channel
// naming, unless nothing would be left.
func CleanFundName(name string) string {
	if !strings.HasSuffix(name, digitizationSuffix) {
		return name
	}
	if cleaned := strings.TrimSpace(strings.TrimSuffix(name, digitizationSuffix)); cleaned != "" {
		return cleaned
	}
	return name
}

// LooksLikeClickUpLink reports whether link is a URL on clickup.com.
func LooksLikeClickUpLink(link string) bool {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "clickup.com" || strings.HasSuffix(host, ".clickup.com")
}

// Warnings lists review notes for a result that are not contract failures.
func (r *Result) Warnings() []string {
	var out []string
	if r.FundName.Value == nil || strings.TrimSpace(*r.FundName.Value) == "" {
		out = append(out, "fund name was not found; it is required before saving")
	}
	if link := r.ClickUpLink.String(); link != "" && !LooksLikeClickUpLink(link) {
		out = append(out, "clickup link doesn't look like a valid ClickUp link")
	}
	return out
}
