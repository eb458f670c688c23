// Package redact strips credentials from strings before they reach
// logs or error responses. Vendor error bodies sometimes echo the
// Authorization header or the request back verbatim, and every vendor
// here authenticates with a bearer API key, so anything derived from a
// provider response goes through this package before being logged.
package redact

import "regexp"

// RedactedKeyPlaceholder replaces anything that looks like an API key.
const RedactedKeyPlaceholder = "[REDACTED_KEY]"

var (
	// Bearer tokens as they appear in echoed Authorization headers.
	bearerRegex = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9_\-.~+/=]{8,}`)

	// sk-prefixed keys, the shape every supported vendor issues.
	skKeyRegex = regexp.MustCompile(`\bsk-[A-Za-z0-9_\-]{8,}\b`)

	// key=value style credentials in echoed URLs or JSON fragments.
	apiKeyRegex = regexp.MustCompile(
		`(?i)(api[_-]?key|token|secret|authorization)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`,
	)
)

// String redacts anything credential-shaped from the input.
func String(input string) string {
	if input == "" {
		return input
	}

	result := bearerRegex.ReplaceAllString(input, RedactedKeyPlaceholder)
	result = skKeyRegex.ReplaceAllString(result, RedactedKeyPlaceholder)
	result = apiKeyRegex.ReplaceAllString(result, "${1}${2}"+RedactedKeyPlaceholder)
	return result
}

// Error redacts an error's Error() output. A nil error yields "".
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
