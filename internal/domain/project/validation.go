package project

import "strings"

// normalizeText trims the user-entered title and description and rejects an
// empty title.
func normalizeText(title, description string) (string, string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", "", ErrInvalidInput
	}
	return title, strings.TrimSpace(description), nil
}

// Matches reports whether the project's title or description contains query,
// ignoring case. An empty query matches everything.
func (p *Project) Matches(query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Title+" "+p.Description), query)
}

// Previewable reports whether a mime type is shown inline rather than downloaded.
func Previewable(mimeType string) bool {
	return mimeType == "application/pdf" || strings.HasPrefix(mimeType, "image/")
}
