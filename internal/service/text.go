package service

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// textCleaner strips markup from free text typed into the forms.
type textCleaner struct {
	policy *bluemonday.Policy
}

func newTextCleaner() textCleaner {
	return textCleaner{policy: bluemonday.StrictPolicy()}
}

// readable reverts the escaping bluemonday applies to plain punctuation.
// Angle brackets stay escaped so entity-encoded markup never turns back into
// tags. The replacer makes a single pass, so "&amp;lt;" ends as "&lt;".
var readable = strings.NewReplacer(
	"&amp;", "&",
	"&#39;", "'",
	"&#34;", `"`,
	"&quot;", `"`,
)

// clean removes tags and keeps apostrophes, quotes and ampersands readable.
func (c textCleaner) clean(value string) string {
	return strings.TrimSpace(readable.Replace(c.policy.Sanitize(value)))
}

// optional is clean for nullable columns: empty text becomes nil.
func (c textCleaner) optional(value string) *string {
	cleaned := c.clean(value)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}
