package extract

import "strings"

// ContainsExcluded returns true if any excluded term appears (case-insensitive)
// anywhere in the combined title + author + snippet text.
func ContainsExcluded(title, author, snippet string, excluded []string) bool {
	if len(excluded) == 0 {
		return false
	}
	combined := strings.ToLower(title + " " + author + " " + snippet)
	for _, term := range excluded {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		if strings.Contains(combined, strings.ToLower(term)) {
			return true
		}
	}
	return false
}
