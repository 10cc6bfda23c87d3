package engine

import "strings"

// subjectMarker is the prefix extracted memories start with ("User likes tea").
const subjectMarker = "user"

// Normalize reduces memory text to the form used for duplicate detection:
// trimmed, lowercased, leading subject marker removed, whitespace runs
// collapsed. The marker is stripped until none remains, so
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	for strings.HasPrefix(s, subjectMarker) {
		s = strings.TrimSpace(s[len(subjectMarker):])
	}
	return strings.Join(strings.Fields(s), " ")
}
