package mcp

import (
	"time"

	"github.com/rpggio/internpm/internal/domain/project"
	"github.com/rpggio/internpm/internal/domain/session"
)

// Tool inputs.

type emptyInput struct{}

type loginInput struct {
	Username string `json:"username,omitempty" jsonschema:"Display name; any value is accepted, empty uses the default profile name"`
}

type setThemeInput struct {
	Theme string `json:"theme" jsonschema:"Color scheme: light or dark"`
}

type createProjectInput struct {
	Title       string   `json:"title" jsonschema:"Project title"`
	Description string   `json:"description,omitempty" jsonschema:"Project description"`
	Files       []string `json:"files,omitempty" jsonschema:"Local file paths to attach, in order"`
}

type updateProjectInput struct {
	ID          string   `json:"id" jsonschema:"Project ID"`
	Title       string   `json:"title" jsonschema:"New title"`
	Description string   `json:"description,omitempty" jsonschema:"New description; empty clears it"`
	Files       []string `json:"files,omitempty" jsonschema:"Replacement attachments; omit to keep the current ones"`
}

type projectIDInput struct {
	ID string `json:"id" jsonschema:"Project ID"`
}

type listProjectsInput struct {
	Query string `json:"query,omitempty" jsonschema:"Case-insensitive text matched against title and description"`
}

type getAttachmentInput struct {
	ProjectID  string `json:"project_id" jsonschema:"Project ID"`
	Index      int    `json:"index" jsonschema:"Zero-based attachment position"`
	OutputPath string `json:"output_path,omitempty" jsonschema:"Write the file here instead of returning its payload"`
}

type downloadAttachmentsInput struct {
	ProjectID string `json:"project_id" jsonschema:"Project ID"`
	Directory string `json:"directory,omitempty" jsonschema:"Directory to write the files into, created if missing (default: current directory)"`
}

type quarantineInput struct {
	IncludeRaw bool `json:"include_raw,omitempty" jsonschema:"Include the full documents and records set aside"`
}

type exportInput struct {
	Directory string `json:"directory,omitempty" jsonschema:"Directory for the backup file (default: current directory)"`
}

// Tool outputs.

type pingOutput struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

type sessionOutput struct {
	Username string          `json:"username"`
	LoggedIn bool            `json:"logged_in"`
	Profile  session.Profile `json:"profile"`
	Theme    string          `json:"theme,omitempty"`
}

type themeOutput struct {
	Theme string `json:"theme"`
}

// AttachmentView is attachment metadata without the payload.
type AttachmentView struct {
	Index        int    `json:"index"`
	Name         string `json:"name"`
	MimeType     string `json:"mime_type"`
	SizeBytes    int64  `json:"size_bytes"`
	LastModified *int64 `json:"last_modified,omitempty"`
	Previewable  bool   `json:"previewable"`
}

// ProjectView is a project as returned by tools.
type ProjectView struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	CreatedAt   string           `json:"created_at"`
	UpdatedAt   string           `json:"updated_at,omitempty"`
	Attachments []AttachmentView `json:"attachments"`
}

type listProjectsOutput struct {
	Projects []ProjectView `json:"projects"`
	Count    int           `json:"count"`
	Warning  *APIError     `json:"warning,omitempty"`
}

type deleteOutput struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

type attachmentOutput struct {
	AttachmentView
	Payload string `json:"payload,omitempty"`
	DataURL string `json:"data_url,omitempty"` // previewable attachments only
	Path    string `json:"path,omitempty"`
}

type exportOutput struct {
	FileName     string `json:"file_name"`
	Path         string `json:"path"`
	ProjectCount int    `json:"project_count"`
}

type savedAttachment struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
}

type downloadOutput struct {
	ProjectID string            `json:"project_id"`
	Directory string            `json:"directory"`
	Files     []savedAttachment `json:"files"`
}

type repairOutput struct {
	Quarantined []project.QuarantinedRecord `json:"quarantined"`
}

type quarantineEntryView struct {
	SavedAt   string                      `json:"saved_at,omitempty"`
	Operation string                      `json:"operation"`
	Bytes     int                         `json:"bytes"`
	Dropped   []project.QuarantinedRecord `json:"dropped,omitempty"`
	Raw       string                      `json:"raw,omitempty"`
}

type quarantineOutput struct {
	Entries []quarantineEntryView `json:"entries"`
	Count   int                   `json:"count"`
}

type discardOutput struct {
	Discarded int `json:"discarded"`
}

type resetOutput struct {
	Reset bool `json:"reset"`
}

func toQuarantineView(e project.QuarantineEntry, includeRaw bool) quarantineEntryView {
	view := quarantineEntryView{
		Operation: e.Operation,
		Bytes:     len(e.Raw),
		Dropped:   e.Dropped,
	}
	if !e.SavedAt.IsZero() {
		view.SavedAt = e.SavedAt.UTC().Format(time.RFC3339)
	}
	if includeRaw {
		view.Raw = e.Raw
		return view
	}
	if len(e.Dropped) > 0 {
		view.Dropped = make([]project.QuarantinedRecord, len(e.Dropped))
		for i, r := range e.Dropped {
			r.Raw = ""
			view.Dropped[i] = r
		}
	}
	return view
}

func toProjectView(p *project.Project) ProjectView {
	view := ProjectView{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
		Attachments: make([]AttachmentView, 0, len(p.Attachments)),
	}
	if p.UpdatedAt != nil {
		view.UpdatedAt = p.UpdatedAt.UTC().Format(time.RFC3339)
	}
	for i, att := range p.Attachments {
		view.Attachments = append(view.Attachments, toAttachmentView(i, att))
	}
	return view
}

func toAttachmentView(index int, att project.Attachment) AttachmentView {
	return AttachmentView{
		Index:        index,
		Name:         att.Name,
		MimeType:     att.MimeType,
		SizeBytes:    att.SizeBytes,
		LastModified: att.LastModified,
		Previewable:  project.Previewable(att.MimeType),
	}
}
