package httpfetch

import "regexp"

// titleRegex pulls the first <title> element's text out of raw HTML. This
// path deliberately stays regex-based rather than upgrading to a full
// parser — the HTTP fetch path favors speed over tolerance of malformed
// markup, and a missing/garbled title is not a failure.
var titleRegex = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

// challengeRegex matches the bot-protection vocabulary commonly inserted in
// place of real content by Cloudflare and similar services.
var challengeRegex = regexp.MustCompile(`(?i)cloudflare|checking your browser|please wait|verification|captcha|attention required`)

// extractTitle returns the trimmed text of the document's <title> element,
// or "" if none is present.
func extractTitle(body string) string {
	m := titleRegex.FindStringSubmatch(body)
	if len(m) < 2 {
		return ""
	}
	return collapseWhitespace(m[1])
}

// isChallengePage reports whether body looks like a bot-protection
// interstitial rather than the requested content.
func isChallengePage(body string) bool {
	return challengeRegex.MatchString(body)
}

var noscriptRegex = regexp.MustCompile(`(?i)<noscript[^>]*>`)
var emptyRootRegex = regexp.MustCompile(`(?i)<div\s+id=["']?(root|app)["']?\s*>\s*</div>`)
var titleTagRegex = regexp.MustCompile(`(?is)<title[^>]*>\s*</title>`)

// looksLikeSPAShell implements the HybridRouter's SPA-shell heuristic: a
// document that is syntactically HTML but whose real content only appears
// after client-side JavaScript runs.
func looksLikeSPAShell(body string) bool {
	if len(body) < 150 && noscriptRegex.MatchString(body) {
		return true
	}
	if noscriptRegex.MatchString(body) {
		return true
	}
	if emptyRootRegex.MatchString(body) {
		return true
	}
	if !titleRegex.MatchString(body) || titleTagRegex.MatchString(body) {
		return true
	}
	return false
}

func collapseWhitespace(s string) string {
	out := make([]byte, 0, len(s))
	lastSpace := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			if !lastSpace && len(out) > 0 {
				out = append(out, ' ')
			}
			lastSpace = true
			continue
		}
		lastSpace = false
		out = append(out, c)
	}
	for len(out) > 0 && out[len(out)-1] == ' ' {
		out = out[:len(out)-1]
	}
	return string(out)
}
