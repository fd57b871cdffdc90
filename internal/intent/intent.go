// Package intent detects market-intelligence requests in free-form chat text.
package intent

import (
	"regexp"
	"strings"
)

// Detection is the classifier verdict for one outgoing message.
type Detection struct {
	Ticker      string
	Detected    bool
	NeedsTicker bool
}

// Phrases that mark a message as a market-intelligence request.
var keywords = []string{
	"market intelligence",
	"intelligence for",
}

// Words that never stand in for a ticker on their own.
var stopwords = map[string]bool{
	"market":       true,
	"intelligence": true,
	"for":          true,
}

var (
	forPattern    = regexp.MustCompile(`(?i)for\s+([A-Za-z0-9]{1,10})\b`)
	parenPattern  = regexp.MustCompile(`\(([A-Za-z0-9]{1,10})\)`)
	tokenPattern  = regexp.MustCompile(`[A-Za-z0-9]+`)
	tickerPattern = regexp.MustCompile(`^[A-Z0-9]{1,10}$`)
)

// matchers extract a raw ticker candidate from the original-case message.
// Evaluated in order until one yields a candidate that validates; the order
// is part of the observable contract.
var matchers = []func(string) string{
	matchAfterFor,
	matchParenthesized,
	matchBareToken,
}

// Classify inspects an outgoing user message for a market-intelligence
// request. It returns nil when no keyword is present. When a keyword is
// present but no ticker can be extracted, the detection carries NeedsTicker
// and the caller must ask for clarification instead of hitting the backend.
func Classify(message string) *Detection {
	if strings.TrimSpace(message) == "" {
		return nil
	}

	normalized := strings.ToLower(strings.TrimSpace(message))
	found := false
	for _, kw := range keywords {
		if strings.Contains(normalized, kw) {
			found = true
			break
		}
	}
	if !found {
		return nil
	}

	for _, match := range matchers {
		candidate := match(message)
		if candidate == "" {
			continue
		}
		ticker := strings.TrimSpace(strings.ToUpper(candidate))
		if tickerPattern.MatchString(ticker) {
			return &Detection{Ticker: ticker, Detected: true}
		}
	}

	return &Detection{Detected: true, NeedsTicker: true}
}

// matchAfterFor handles "market intelligence for AAPL" and friends.
func matchAfterFor(message string) string {
	if m := forPattern.FindStringSubmatch(message); m != nil {
		return m[1]
	}
	return ""
}

// matchParenthesized handles "Zomato (ZOMATO)" style mentions.
func matchParenthesized(message string) string {
	if m := parenPattern.FindStringSubmatch(message); m != nil {
		return m[1]
	}
	return ""
}

// matchBareToken picks the first standalone token that could be a symbol,
// skipping keyword words and any token immediately followed by "for".
func matchBareToken(message string) string {
	locs := tokenPattern.FindAllStringIndex(message, -1)
	for _, loc := range locs {
		token := message[loc[0]:loc[1]]
		if len(token) > 10 {
			continue
		}
		if stopwords[strings.ToLower(token)] {
			continue
		}
		if followedByFor(message[loc[1]:]) {
			continue
		}
		return token
	}
	return ""
}

// followedByFor reports whether the remainder starts with whitespace and the
// word "for", which marks the preceding token as part of a request phrase
// rather than a symbol.
func followedByFor(rest string) bool {
	trimmed := strings.TrimLeft(rest, " \t")
	if trimmed == rest {
		return false
	}
	lower := strings.ToLower(trimmed)
	if !strings.HasPrefix(lower, "for") {
		return false
	}
	after := lower[3:]
	return after == "" || !isWordChar(after[0])
}

func isWordChar(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
