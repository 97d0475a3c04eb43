package redact

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
)

// Sentinel tokens substituted for redacted content. They contain no digits or
// @-signs, so re-running the email/phone passes over already-redacted text is
// a no-op.
const (
	NamePlaceholder  = "[NAME REDACTED]"
	EmailPlaceholder = "[EMAIL REDACTED]"
	PhonePlaceholder = "[PHONE REDACTED]"
)

var (
	reEmail = regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`)

	// Optional country code, optional parenthesized area code, then grouped
	// digit runs. Loose on purpose: redacting a stray digit run costs nothing,
	// missing a real number leaks it to the provider.
	rePhone = regexp.MustCompile(`(\+?\d{1,3}[\s.\-]?)?(\(?\d{2,3}\)?[\s.\-]?)(\d{2,4}[\s.\-]?){2,4}\d{2,4}`)

	// Two or three capitalized words at the start of a line, Latin plus
	// Latin-extended ranges for accented names.
	reName = regexp.MustCompile(`(?m)^([A-Z\x{00C0}-\x{024F}][a-zA-Z\x{00C0}-\x{024F}'\-]+ ){1,2}[A-Z\x{00C0}-\x{024F}][a-zA-Z\x{00C0}-\x{024F}'\-]+`)
)

// Anonymize masks PII in extracted document text before it leaves the process.
// The first name-like line is replaced once, then every email-shaped and
// phone-shaped substring. Best-effort scrubbing, not a security boundary.
func Anonymize(text string) string {
	text = replaceFirst(reName, text, NamePlaceholder)
	text = reEmail.ReplaceAllString(text, EmailPlaceholder)
	text = rePhone.ReplaceAllString(text, PhonePlaceholder)
	return text
}

func replaceFirst(re *regexp.Regexp, text, placeholder string) string {
	loc := re.FindStringIndex(text)
	if loc == nil {
		return text
	}
	return text[:loc[0]] + placeholder + text[loc[1]:]
}

// Fingerprint returns a stable hex digest of text. Byte-identical inputs
// always produce the same digest; it is used to detect re-uploads, not for
// integrity checks.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
