package validators

import "strings"

// SanitizeString trims free-text input such as transition notes and truncates
// it to maxLen bytes. maxLen <= 0 means no truncation.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && len(trimmed) > maxLen {
		return trimmed[:maxLen]
	}
	return trimmed
}
