package project

import "time"

// Attachment is one user-supplied file embedded in its owning project.
// Payload is the standard base64 form of the file bytes and always decodes
// to exactly SizeBytes bytes.
type Attachment struct {
	Name         string `json:"name"`
	MimeType     string `json:"mime_type"`
	SizeBytes    int64  `json:"size_bytes"`
	LastModified *int64 `json:"last_modified,omitempty"` // epoch millis
	Payload      string `json:"payload"`
}

// Project is a tracked piece of work with its attached files
type Project struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   *time.Time   `json:"updated_at,omitempty"`
	Attachments []Attachment `json:"attachments"`
}

// Collection is every stored project, newest first.
type Collection []Project

// IndexOf returns the position of the project with id, or -1.
func (c Collection) IndexOf(id string) int {
	for i := range c {
		if c[i].ID == id {
			return i
		}
	}
	return -1
}

// HasID reports whether a project with id exists.
func (c Collection) HasID(id string) bool {
	return c.IndexOf(id) >= 0
}
