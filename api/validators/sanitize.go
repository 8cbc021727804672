package validators

import "strings"

// SanitizeString trims surrounding whitespace and truncates to maxLen bytes.
// Event and tier names pass through here before they reach the registry, so
// a padded name never defeats the registry's own length checks.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && len(trimmed) > maxLen {
		return trimmed[:maxLen]
	}
	return trimmed
}
