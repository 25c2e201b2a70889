package app

import (
	"regexp"
	"strings"
)

// HelpText is the reply to a private message that does not invoke the bot.
const HelpText = "__Introducing... **ArrayButt!**__\n" +
	"A revolution in philosophy!\n" +
	"Invoke me with `[]says [date|query]`"

const invocationPrefix = `\[]says`

// InvocationMatcher recognizes the invocation prefix in message content.
// A message invokes the bot when it contains "[]says" or a mention of the
// bot user, optionally followed by a query.
type InvocationMatcher struct {
	re *regexp.Regexp
}

// NewInvocationMatcher builds a matcher for the given bot user ID. An empty
// ID matches only the text prefix.
func NewInvocationMatcher(botUserID string) *InvocationMatcher {
	alternatives := invocationPrefix
	if botUserID != "" {
		alternatives += `|<@!?` + regexp.QuoteMeta(botUserID) + `>`
	}

	return &InvocationMatcher{
		re: regexp.MustCompile(`(?:` + alternatives + `)\s*(?:(.*)\s*)?`),
	}
}

// Match reports whether content invokes the bot and returns the trimmed
// query that followed the prefix.
func (m *InvocationMatcher) Match(content string) (string, bool) {
	groups := m.re.FindStringSubmatch(content)
	if groups == nil {
		return "", false
	}

	return strings.TrimSpace(groups[1]), true
}
