// Package scan detects hardcoded secrets in fetched file content and
// scores the aggregate risk. Detectors are data records processed by
// one uniform loop; adding a detector means appending an entry, not
// writing new scanning code.
package scan

import (
	"regexp"
	"strings"
)

// detector is one secret pattern. validate, when set, vets a raw regex
// hit against its surrounding line to cut false positives.
type detector struct {
	vtype       VulnType
	severity    Severity
	re          *regexp.Regexp
	description string
	suggestion  string
	validate    func(line, match string) bool
}

var detectors = []detector{
	// Hardcoded environment-style assignments.
	{
		vtype:       TypeEnvVar,
		severity:    SeverityMedium,
		re:          regexp.MustCompile(`(?i)\b(api[_-]?key|apikey|secret|password|passwd|pwd|auth[_-]?token|access[_-]?key|client[_-]?secret|database[_-]?url|db[_-]?password|encryption[_-]?key|token)\s*[:=]\s*["'][^"']{8,}["']`),
		description: "hardcoded credential assignment",
		suggestion:  "Move the value into an environment variable or a secret manager and rotate it.",
		validate:    notPlaceholder,
	},

	// AWS credentials.
	{
		vtype:       TypeAWSKey,
		severity:    SeverityCritical,
		re:          regexp.MustCompile(`\b(AKIA|ASIA)[0-9A-Z]{16}\b`),
		description: "AWS access key ID",
		suggestion:  "Revoke the key in IAM immediately and switch the workload to role-based credentials.",
	},
	{
		vtype:       TypeAWSKey,
		severity:    SeverityHigh,
		re:          regexp.MustCompile(`[A-Za-z0-9/+=]{40}`),
		description: "possible AWS secret access key",
		suggestion:  "If this is a live secret, rotate it and load it from the environment instead.",
		validate:    awsSecretLike,
	},
	{
		vtype:       TypeAWSKey,
		severity:    SeverityHigh,
		re:          regexp.MustCompile(`(?i)\baws[_-]?(secret[_-]?access[_-]?key|access[_-]?key[_-]?id|session[_-]?token)\b\s*[:=]\s*\S{8,}`),
		description: "AWS credential configuration key",
		suggestion:  "Keep AWS credentials out of tracked files; use instance roles or env injection.",
		validate:    notPlaceholder,
	},

	// Vendor and generic API keys.
	{
		vtype:       TypeAPIKey,
		severity:    SeverityHigh,
		re:          regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{20,}\b`),
		description: "OpenAI API key",
		suggestion:  "Revoke the key in the OpenAI dashboard and issue a scoped replacement.",
	},
	{
		vtype:       TypeAPIKey,
		severity:    SeverityCritical,
		re:          regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{36,}\b`),
		description: "GitHub access token",
		suggestion:  "Revoke the token in GitHub settings; committed tokens are auto-revoked but clones keep them.",
	},
	{
		vtype:       TypeAPIKey,
		severity:    SeverityHigh,
		re:          regexp.MustCompile(`\bAIza[0-9A-Za-z_\-]{35}\b`),
		description: "Google API key",
		suggestion:  "Regenerate the key in the Google Cloud console and restrict it by referrer or IP.",
	},
	{
		vtype:       TypeAPIKey,
		severity:    SeverityMedium,
		re:          regexp.MustCompile(`\b[a-f0-9]{32,64}\b`),
		description: "high-entropy hex string",
		suggestion:  "Confirm whether this is a credential; if so, rotate it and load it at runtime.",
		validate:    hexSecretLike,
	},

	// PEM blocks.
	{
		vtype:       TypePrivateKey,
		severity:    SeverityCritical,
		re:          regexp.MustCompile(`-----BEGIN (RSA |EC |DSA |OPENSSH |ENCRYPTED |PGP )?PRIVATE KEY( BLOCK)?-----`),
		description: "private key material",
		suggestion:  "Remove the key from history, regenerate the key pair and distribute it out of band.",
	},
	{
		vtype:       TypePrivateKey,
		severity:    SeverityLow,
		re:          regexp.MustCompile(`-----BEGIN CERTIFICATE-----`),
		description: "embedded certificate",
		suggestion:  "Certificates are public but usually belong in deploy config, not source.",
	},
}

var placeholderHints = []string{
	"process.env", "os.environ", "getenv", "${", "%s", "{{", "<",
	"example", "changeme", "change-me", "your_", "your-", "placeholder",
	"dummy", "xxxx", "todo",
}

// notPlaceholder rejects assignments whose line clearly references an
// environment lookup or a documentation placeholder value.
func notPlaceholder(line, _ string) bool {
	lower := strings.ToLower(line)
	for _, hint := range placeholderHints {
		if strings.Contains(lower, hint) {
			return false
		}
	}
	return true
}

var hashContextHints = []string{"sha1", "sha256", "sha512", "md5", "integrity", "checksum", "commit", "digest"}

// hexSecretLike drops hex runs that are almost certainly content
// hashes rather than credentials.
func hexSecretLike(line, match string) bool {
	lower := strings.ToLower(line)
	for _, hint := range hashContextHints {
		if strings.Contains(lower, hint) {
			return false
		}
	}
	var letter, digit bool
	for _, r := range match {
		switch {
		case r >= 'a' && r <= 'f':
			letter = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	return letter && digit
}

// awsSecretLike vets a 40-char charset hit. It must stand alone (not a
// slice of a longer run), and must either carry base64 punctuation or
// mix upper, lower and digit characters; plain words of the right
// length fail the second test.
func awsSecretLike(line, match string) bool {
	lower := strings.ToLower(line)
	for _, hint := range hashContextHints {
		if strings.Contains(lower, hint) {
			return false
		}
	}

	i := strings.Index(line, match)
	if i < 0 {
		return false
	}
	if i > 0 && isSecretChar(line[i-1]) {
		return false
	}
	if j := i + len(match); j < len(line) && isSecretChar(line[j]) {
		return false
	}

	if strings.ContainsAny(match, "/+=") {
		return true
	}
	var upper, lowerc, digit bool
	for _, r := range match {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lowerc = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	return upper && lowerc && digit
}

func isSecretChar(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '/', c == '+', c == '=':
		return true
	}
	return false
}
