package deck

import "strings"

// Normalize canonicalizes a raw card name. Surrounding whitespace is
// stripped; case and punctuation are preserved. Idempotent, so names that
// already went through a parse pass are safe to normalize again.
func Normalize(raw string) string {
	return strings.TrimSpace(raw)
}
