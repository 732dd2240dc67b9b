package masker

import "regexp"

// Redaction markers. None of them match any pattern below, which is what
// makes masking idempotent.
const (
	RedactedMarker   = "[REDACTED]"
	CredentialMarker = "[MASKED_CREDENTIAL]"
	BearerMarker     = "Bearer [MASKED]"
	EmailMarker      = "[EMAIL]"
	PhoneMarker      = "[PHONE]"
	HomeMarker       = "~"
)

// builtinSensitiveFields are replaced wholesale when they appear as payload
// keys, regardless of value type. Matching is exact and case-sensitive.
var builtinSensitiveFields = []string{
	"password",
	"passwd",
	"secret",
	"token",
	"apiKey",
	"api_key",
	"accessToken",
	"access_token",
	"refreshToken",
	"refresh_token",
	"sessionToken",
	"session_token",
	"authorization",
	"credential",
	"credentials",
	"privateKey",
	"private_key",
}

// patternRule rewrites matched substrings inside string values.
type patternRule struct {
	re          *regexp.Regexp
	replacement string
}

// Compiled patterns for sensitive data detection.
var patternRules = []patternRule{
	// Credential-shaped tokens: provider API keys (sk-..., ghp_..., xox...)
	// and long opaque secrets with a recognizable prefix.
	{regexp.MustCompile(`\b(?:sk|pk|rk)-[A-Za-z0-9_-]{8,}`), CredentialMarker},
	{regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{16,}`), CredentialMarker},
	{regexp.MustCompile(`\bxox[baprs]-[A-Za-z0-9-]{10,}`), CredentialMarker},
	{regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`), CredentialMarker},

	// Bearer tokens in header-shaped strings.
	{regexp.MustCompile(`Bearer\s+[A-Za-z0-9\-._~+/]+=*`), BearerMarker},

	// Home directory paths (Linux and macOS).
	{regexp.MustCompile(`/(?:home|Users)/[A-Za-z0-9._-]+`), HomeMarker},

	// Email addresses.
	{regexp.MustCompile(`\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`), EmailMarker},

	// Phone numbers: international or separator-grouped, 9+ digits.
	{regexp.MustCompile(`\+\d{1,3}[\s.-]?\(?\d{1,4}\)?(?:[\s.-]?\d{2,4}){2,4}`), PhoneMarker},
	{regexp.MustCompile(`\b\d{3}[\s.-]\d{3,4}[\s.-]\d{4}\b`), PhoneMarker},
}
