package logging

import (
	"log/slog"
	"regexp"

	"github.com/m-mizutani/masq"
)

// sensitiveFields are attribute and struct field names whose values are
// always masked. Both config spellings and Go field names are listed because
// masq matches structs by field name.
var sensitiveFields = []string{
	"password", "secret", "token", "Token",
	"apiKey", "apikey", "api_key",
	"accessToken", "access_token", "refreshToken", "refresh_token",
	"credential", "credentials", "authorization", "auth", "bearer",
	"cookie", "session",
	"privateKey", "private_key", "secretKey", "secret_key",
	"bot_token", "invocation_token", "InvocationToken",
}

// sensitiveValues mask a value regardless of its key.
var sensitiveValues = []*regexp.Regexp{
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`), // JWT
	regexp.MustCompile(`(?i)^bearer\s+.+$`),
	regexp.MustCompile(`(?i)^basic\s+.+$`),
	regexp.MustCompile(`^Bot\s+.+$`), // chat bot Authorization header
}

// DefaultRedactOptions returns the masq options applied by every logger.
func DefaultRedactOptions() []masq.Option {
	opts := make([]masq.Option, 0, len(sensitiveFields)+len(sensitiveValues)+2)

	for _, name := range sensitiveFields {
		opts = append(opts, masq.WithFieldName(name))
	}

	opts = append(opts, masq.WithFieldPrefix("secret"), masq.WithFieldPrefix("private"))

	for _, re := range sensitiveValues {
		opts = append(opts, masq.WithRegex(re))
	}

	return opts
}

// NewReplaceAttr returns a slog ReplaceAttr func masking DefaultRedactOptions
// plus opts.
func NewReplaceAttr(opts ...masq.Option) func(groups []string, a slog.Attr) slog.Attr {
	return masq.New(append(DefaultRedactOptions(), opts...)...)
}
