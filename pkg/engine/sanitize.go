package engine

import (
	"html"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans free text before it leaves the engine.
type Sanitizer interface {
	Sanitize(string) string
}

var (
	strictPolicyOnce sync.Once
	strictPolicy     *bluemonday.Policy
)

type textSanitizer struct {
	policy *bluemonday.Policy
}

// Sanitize drops markup and returns plain text; entities escaped by the
// policy are decoded again so payloads carry the text the user typed.
func (s textSanitizer) Sanitize(value string) string {
	return html.UnescapeString(s.policy.Sanitize(value))
}

// StrictSanitizer returns a sanitizer that strips every HTML element and
// attribute, leaving text content.
func StrictSanitizer() Sanitizer {
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return textSanitizer{policy: strictPolicy}
}
