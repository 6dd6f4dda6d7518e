package codec

import "strings"

const dataURLPrefix = "data:"

// StripDataURL splits a "data:<mime>;base64,<payload>" string into its payload
// and mime type. ok is false when s is not a base64 data URL, in which case s is
// returned unchanged as the payload.
func StripDataURL(s string) (payload, mimeType string, ok bool) {
	if !strings.HasPrefix(s, dataURLPrefix) {
		return s, "", false
	}
	header, body, found := strings.Cut(s[len(dataURLPrefix):], ",")
	if !found {
		return s, "", false
	}
	mimeType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return s, "", false
	}
	return body, mimeType, true
}

// DataURL builds a base64 data URL for payload, used for inline previews.
func DataURL(payload, mimeType string) string {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return dataURLPrefix + mimeType + ";base64," + payload
}
