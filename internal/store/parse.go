package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/internpm/internal/codec"
	"github.com/rpggio/internpm/internal/domain/project"
)

// storedProject accepts both the current record shape and the legacy browser
// shape (camelCase timestamps, "files" with "type"/"size"/"data").
type storedProject struct {
	ID              string             `json:"id"`
	Title           *string            `json:"title"`
	Description     string             `json:"description"`
	CreatedAt       *time.Time         `json:"created_at"`
	LegacyCreatedAt *time.Time         `json:"createdAt"`
	UpdatedAt       *time.Time         `json:"updated_at"`
	Attachments     []storedAttachment `json:"attachments"`
	LegacyFiles     []storedAttachment `json:"files"`
}

type storedAttachment struct {
	Name               string  `json:"name"`
	MimeType           string  `json:"mime_type"`
	LegacyType         string  `json:"type"`
	SizeBytes          *int64  `json:"size_bytes"`
	LegacySize         *int64  `json:"size"`
	LastModified       *int64  `json:"last_modified"`
	LegacyLastModified *int64  `json:"lastModified"`
	Payload            *string `json:"payload"`
	LegacyData         *string `json:"data"`
}

// parseCollection splits a stored document into valid projects and
// quarantined records. A document that is not a JSON array fails outright.
func parseCollection(doc string) (project.Collection, []project.QuarantinedRecord, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal([]byte(doc), &raws); err != nil {
		return nil, nil, fmt.Errorf("decoding collection: %w", err)
	}

	projects := make(project.Collection, 0, len(raws))
	var quarantined []project.QuarantinedRecord
	seen := make(map[string]bool, len(raws))

	for i, raw := range raws {
		proj, err := parseProject(raw)
		if err == nil && seen[proj.ID] {
			err = fmt.Errorf("%w %q", ErrDuplicateID, proj.ID)
		}
		if err != nil {
			quarantined = append(quarantined, project.QuarantinedRecord{
				Index:  i,
				ID:     proj.ID,
				Reason: err.Error(),
				Raw:    string(raw),
			})
			continue
		}
		seen[proj.ID] = true
		projects = append(projects, proj)
	}

	return projects, quarantined, nil
}

func parseProject(raw json.RawMessage) (project.Project, error) {
	var sp storedProject
	if err := json.Unmarshal(raw, &sp); err != nil {
		return project.Project{}, fmt.Errorf("decoding record: %w", err)
	}

	proj := project.Project{
		ID:          strings.TrimSpace(sp.ID),
		Description: sp.Description,
		UpdatedAt:   sp.UpdatedAt,
	}
	if proj.ID == "" {
		return proj, errors.New("missing id")
	}
	if sp.Title == nil || strings.TrimSpace(*sp.Title) == "" {
		return proj, errors.New("missing title")
	}
	proj.Title = *sp.Title

	switch {
	case sp.CreatedAt != nil:
		proj.CreatedAt = *sp.CreatedAt
	case sp.LegacyCreatedAt != nil:
		proj.CreatedAt = *sp.LegacyCreatedAt
	default:
		return proj, errors.New("missing created_at")
	}

	stored := sp.Attachments
	if stored == nil {
		stored = sp.LegacyFiles
	}
	proj.Attachments = make([]project.Attachment, 0, len(stored))
	for i, sa := range stored {
		att, err := parseAttachment(sa)
		if err != nil {
			return proj, fmt.Errorf("attachment %d: %w", i, err)
		}
		proj.Attachments = append(proj.Attachments, att)
	}

	return proj, nil
}

func parseAttachment(sa storedAttachment) (project.Attachment, error) {
	att := project.Attachment{
		Name:         sa.Name,
		MimeType:     firstNonEmpty(sa.MimeType, sa.LegacyType),
		LastModified: sa.LastModified,
	}
	if att.LastModified == nil {
		att.LastModified = sa.LegacyLastModified
	}

	var payload string
	switch {
	case sa.Payload != nil:
		payload = *sa.Payload
	case sa.LegacyData != nil:
		payload = *sa.LegacyData
	default:
		return att, errors.New("missing payload")
	}
	// Some records kept the whole data URL instead of the bare payload.
	if stripped, mimeType, ok := codec.StripDataURL(payload); ok {
		payload = stripped
		att.MimeType = firstNonEmpty(att.MimeType, mimeType)
	}

	data, err := codec.Decode(payload)
	if err != nil {
		return att, err
	}

	size := sa.SizeBytes
	if size == nil {
		size = sa.LegacySize
	}
	if size == nil {
		return att, errors.New("missing size")
	}
	if *size != int64(len(data)) {
		return att, fmt.Errorf("size %d does not match payload length %d", *size, len(data))
	}

	att.SizeBytes = *size
	att.Payload = payload
	return att, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
