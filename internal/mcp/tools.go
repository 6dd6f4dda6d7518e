package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/internpm/internal/codec"
	"github.com/rpggio/internpm/internal/domain/export"
	"github.com/rpggio/internpm/internal/domain/project"
	"github.com/rpggio/internpm/internal/domain/session"
)

// loginRequired lists the tools gated behind a stored login.
var loginRequired = map[string]bool{
	"create_project":       true,
	"update_project":       true,
	"delete_project":       true,
	"get_project":          true,
	"list_projects":        true,
	"get_attachment":       true,
	"download_attachments": true,
	"export_projects":      true,
	"repair_store":         true,
	"reset_store":          true,
	"get_quarantine":       true,
	"discard_quarantine":   true,
}

type toolHandlers struct {
	services Services
	logger   *slog.Logger
	now      func() time.Time
}

func registerTools(server *sdkmcp.Server, services Services, logger *slog.Logger) {
	h := &toolHandlers{services: services, logger: logger, now: time.Now}

	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "ping", Description: "Check that the server is responding"}, h.ping)

	// Session
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "login", Description: "Log in with any display name; required before project tools"}, h.login)
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "logout", Description: "Log out; the username is remembered"}, h.logout)
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "whoami", Description: "Show login state, profile and theme"}, h.whoami)
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "get_theme", Description: "Get the color scheme"}, h.getTheme)
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "set_theme", Description: "Set the color scheme to light or dark"}, h.setTheme)
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "toggle_theme", Description: "Switch between light and dark"}, h.toggleTheme)

	// Projects
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "create_project", Description: "Create a project, attaching local files in order"}, h.createProject)
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "update_project", Description: "Edit a project; files replace all attachments when given"}, h.updateProject)
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "delete_project", Description: "Delete a project and its attachments"}, h.deleteProject)
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "get_project", Description: "Get a project with attachment metadata"}, h.getProject)
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "list_projects", Description: "List projects newest first, optionally filtered by text"}, h.listProjects)
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "get_attachment", Description: "Fetch an attachment's contents or save them to a path"}, h.getAttachment)
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "download_attachments", Description: "Save every attachment of a project into a directory"}, h.downloadAttachments)
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "export_projects", Description: "Write a JSON backup of the profile and all projects"}, h.exportProjects)

	if services.Recovery != nil {
		sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "repair_store", Description: "Quarantine unreadable projects and keep the readable ones"}, h.repairStore)
		sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "reset_store", Description: "Back up the stored projects and start with an empty collection"}, h.resetStore)
		sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "get_quarantine", Description: "List documents set aside by repair_store and reset_store"}, h.getQuarantine)
		sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "discard_quarantine", Description: "Delete every quarantined document"}, h.discardQuarantine)
	}
}

func (h *toolHandlers) ping(_ context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, pingOutput, error) {
	return nil, pingOutput{Status: "ok", Time: h.now().UTC().Format(time.RFC3339)}, nil
}

func (h *toolHandlers) login(ctx context.Context, _ *sdkmcp.CallToolRequest, in loginInput) (*sdkmcp.CallToolResult, sessionOutput, error) {
	sess, err := h.services.Sessions.Login(ctx, in.Username)
	if err != nil {
		res, err := errorResult(err)
		return res, sessionOutput{}, err
	}
	return h.sessionResult(ctx, sess)
}

func (h *toolHandlers) logout(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, sessionOutput, error) {
	if err := h.services.Sessions.Logout(ctx); err != nil {
		res, err := errorResult(err)
		return res, sessionOutput{}, err
	}
	sess, err := h.services.Sessions.Current(ctx)
	if err != nil {
		res, err := errorResult(err)
		return res, sessionOutput{}, err
	}
	return h.sessionResult(ctx, sess)
}

func (h *toolHandlers) whoami(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, sessionOutput, error) {
	sess, err := h.services.Sessions.Current(ctx)
	if err != nil {
		res, err := errorResult(err)
		return res, sessionOutput{}, err
	}
	return h.sessionResult(ctx, sess)
}

func (h *toolHandlers) sessionResult(ctx context.Context, sess *session.Session) (*sdkmcp.CallToolResult, sessionOutput, error) {
	profile, err := h.services.Sessions.Profile(ctx)
	if err != nil {
		res, err := errorResult(err)
		return res, sessionOutput{}, err
	}
	theme, err := h.services.Sessions.Theme(ctx)
	if err != nil {
		res, err := errorResult(err)
		return res, sessionOutput{}, err
	}
	return nil, sessionOutput{
		Username: sess.Username,
		LoggedIn: sess.LoggedIn,
		Profile:  profile,
		Theme:    string(theme),
	}, nil
}

func (h *toolHandlers) getTheme(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, themeOutput, error) {
	theme, err := h.services.Sessions.Theme(ctx)
	if err != nil {
		res, err := errorResult(err)
		return res, themeOutput{}, err
	}
	return nil, themeOutput{Theme: string(theme)}, nil
}

func (h *toolHandlers) setTheme(ctx context.Context, _ *sdkmcp.CallToolRequest, in setThemeInput) (*sdkmcp.CallToolResult, themeOutput, error) {
	theme := session.Theme(in.Theme)
	if err := h.services.Sessions.SetTheme(ctx, theme); err != nil {
		res, err := errorResult(err)
		return res, themeOutput{}, err
	}
	return nil, themeOutput{Theme: string(theme)}, nil
}

func (h *toolHandlers) toggleTheme(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, themeOutput, error) {
	theme, err := h.services.Sessions.ToggleTheme(ctx)
	if err != nil {
		res, err := errorResult(err)
		return res, themeOutput{}, err
	}
	return nil, themeOutput{Theme: string(theme)}, nil
}

func (h *toolHandlers) createProject(ctx context.Context, _ *sdkmcp.CallToolRequest, in createProjectInput) (*sdkmcp.CallToolResult, ProjectView, error) {
	files, err := openFiles(in.Files)
	if err != nil {
		res, err := errorResult(err)
		return res, ProjectView{}, err
	}
	proj, err := h.services.Projects.Create(ctx, project.CreateRequest{
		Title:       in.Title,
		Description: in.Description,
		Files:       files,
	})
	if err != nil {
		res, err := errorResult(err)
		return res, ProjectView{}, err
	}
	return nil, toProjectView(proj), nil
}

func (h *toolHandlers) updateProject(ctx context.Context, _ *sdkmcp.CallToolRequest, in updateProjectInput) (*sdkmcp.CallToolResult, ProjectView, error) {
	files, err := openFiles(in.Files)
	if err != nil {
		res, err := errorResult(err)
		return res, ProjectView{}, err
	}
	proj, err := h.services.Projects.Update(ctx, project.UpdateRequest{
		ID:          in.ID,
		Title:       in.Title,
		Description: in.Description,
		Files:       files,
	})
	if err != nil {
		res, err := errorResult(err)
		return res, ProjectView{}, err
	}
	return nil, toProjectView(proj), nil
}

func (h *toolHandlers) deleteProject(ctx context.Context, _ *sdkmcp.CallToolRequest, in projectIDInput) (*sdkmcp.CallToolResult, deleteOutput, error) {
	if err := h.services.Projects.Delete(ctx, in.ID); err != nil {
		res, err := errorResult(err)
		return res, deleteOutput{}, err
	}
	return nil, deleteOutput{ID: in.ID, Deleted: true}, nil
}

func (h *toolHandlers) getProject(ctx context.Context, _ *sdkmcp.CallToolRequest, in projectIDInput) (*sdkmcp.CallToolResult, ProjectView, error) {
	proj, err := h.services.Projects.Get(ctx, in.ID)
	if err != nil {
		res, err := errorResult(err)
		return res, ProjectView{}, err
	}
	return nil, toProjectView(proj), nil
}

// listProjects reports a partially readable collection as a warning next to
// the projects that could be read.
func (h *toolHandlers) listProjects(ctx context.Context, _ *sdkmcp.CallToolRequest, in listProjectsInput) (*sdkmcp.CallToolResult, listProjectsOutput, error) {
	projects, err := h.services.Projects.List(ctx, in.Query)
	if err != nil && projects == nil {
		res, err := errorResult(err)
		return res, listProjectsOutput{}, err
	}

	out := listProjectsOutput{
		Projects: make([]ProjectView, 0, len(projects)),
		Count:    len(projects),
	}
	for i := range projects {
		out.Projects = append(out.Projects, toProjectView(&projects[i]))
	}
	if err != nil {
		out.Warning = MapError(err)
		if out.Warning == nil {
			out.Warning = &APIError{Code: "INTERNAL", Message: err.Error()}
		}
	}
	return nil, out, nil
}

func (h *toolHandlers) getAttachment(ctx context.Context, _ *sdkmcp.CallToolRequest, in getAttachmentInput) (*sdkmcp.CallToolResult, attachmentOutput, error) {
	proj, err := h.services.Projects.Get(ctx, in.ProjectID)
	if err != nil {
		res, err := errorResult(err)
		return res, attachmentOutput{}, err
	}
	data, mimeType, err := h.services.Projects.AttachmentBlob(proj, in.Index)
	if err != nil {
		res, err := errorResult(err)
		return res, attachmentOutput{}, err
	}

	out := attachmentOutput{AttachmentView: toAttachmentView(in.Index, proj.Attachments[in.Index])}
	out.MimeType = mimeType
	if in.OutputPath == "" {
		out.Payload = codec.Encode(data)
		if out.Previewable {
			out.DataURL = codec.DataURL(out.Payload, mimeType)
		}
		return nil, out, nil
	}
	if err := os.WriteFile(in.OutputPath, data, 0o644); err != nil {
		return nil, attachmentOutput{}, fmt.Errorf("writing attachment: %w", err)
	}
	out.Path = in.OutputPath
	return nil, out, nil
}

// downloadAttachments writes each attachment under its base name, adding a
// numeric suffix when the name is already taken.
func (h *toolHandlers) downloadAttachments(ctx context.Context, _ *sdkmcp.CallToolRequest, in downloadAttachmentsInput) (*sdkmcp.CallToolResult, downloadOutput, error) {
	proj, err := h.services.Projects.Get(ctx, in.ProjectID)
	if err != nil {
		res, err := errorResult(err)
		return res, downloadOutput{}, err
	}

	dir := in.Directory
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, downloadOutput{}, fmt.Errorf("creating download directory: %w", err)
	}

	out := downloadOutput{
		ProjectID: proj.ID,
		Directory: dir,
		Files:     make([]savedAttachment, 0, len(proj.Attachments)),
	}
	taken := make(map[string]bool, len(proj.Attachments))
	for i, att := range proj.Attachments {
		data, _, err := h.services.Projects.AttachmentBlob(proj, i)
		if err != nil {
			res, err := errorResult(err)
			return res, downloadOutput{}, err
		}
		name := freeFileName(dir, baseFileName(att.Name, i), taken)
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, downloadOutput{}, fmt.Errorf("writing attachment %d: %w", i, err)
		}
		out.Files = append(out.Files, savedAttachment{Index: i, Name: name, Path: path, SizeBytes: int64(len(data))})
	}

	h.logger.Info("downloaded attachments", "project_id", proj.ID, "directory", dir, "files", len(out.Files))
	return nil, out, nil
}

func baseFileName(name string, index int) string {
	base := filepath.Base(strings.TrimSpace(name))
	switch base {
	case "", ".", "..", string(filepath.Separator):
		return fmt.Sprintf("attachment-%d", index+1)
	}
	return base
}

// freeFileName returns name, or "stem (n).ext", unused in both taken and dir.
func freeFileName(dir, name string, taken map[string]bool) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := name
	for n := 1; taken[candidate] || fileExists(filepath.Join(dir, candidate)); n++ {
		candidate = fmt.Sprintf("%s (%d)%s", stem, n, ext)
	}
	taken[candidate] = true
	return candidate
}

func fileExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func (h *toolHandlers) exportProjects(ctx context.Context, _ *sdkmcp.CallToolRequest, in exportInput) (*sdkmcp.CallToolResult, exportOutput, error) {
	dir := in.Directory
	if dir == "" {
		dir = "."
	}
	name := export.FileName(h.now())
	path := filepath.Join(dir, name)

	file, err := os.Create(path)
	if err != nil {
		return nil, exportOutput{}, fmt.Errorf("creating backup file: %w", err)
	}
	doc, err := h.services.Export.Write(ctx, file)
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("closing backup file: %w", closeErr)
	}
	if err != nil {
		_ = os.Remove(path)
		res, err := errorResult(err)
		return res, exportOutput{}, err
	}

	h.logger.Info("exported projects", "path", path, "projects", len(doc.Projects))
	return nil, exportOutput{FileName: name, Path: path, ProjectCount: len(doc.Projects)}, nil
}

func (h *toolHandlers) repairStore(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, repairOutput, error) {
	quarantined, err := h.services.Recovery.Repair(ctx)
	if err != nil {
		res, err := errorResult(err)
		return res, repairOutput{}, err
	}
	out := repairOutput{Quarantined: quarantined}
	if out.Quarantined == nil {
		out.Quarantined = []project.QuarantinedRecord{}
	}
	return nil, out, nil
}

func (h *toolHandlers) resetStore(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, resetOutput, error) {
	if err := h.services.Recovery.Reset(ctx); err != nil {
		res, err := errorResult(err)
		return res, resetOutput{}, err
	}
	return nil, resetOutput{Reset: true}, nil
}

func (h *toolHandlers) getQuarantine(ctx context.Context, _ *sdkmcp.CallToolRequest, in quarantineInput) (*sdkmcp.CallToolResult, quarantineOutput, error) {
	entries, err := h.services.Recovery.Quarantine(ctx)
	if err != nil {
		res, err := errorResult(err)
		return res, quarantineOutput{}, err
	}
	out := quarantineOutput{Entries: make([]quarantineEntryView, 0, len(entries)), Count: len(entries)}
	for _, e := range entries {
		out.Entries = append(out.Entries, toQuarantineView(e, in.IncludeRaw))
	}
	return nil, out, nil
}

func (h *toolHandlers) discardQuarantine(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, discardOutput, error) {
	entries, err := h.services.Recovery.Quarantine(ctx)
	if err != nil {
		res, err := errorResult(err)
		return res, discardOutput{}, err
	}
	if err := h.services.Recovery.DiscardQuarantine(ctx); err != nil {
		res, err := errorResult(err)
		return res, discardOutput{}, err
	}
	return nil, discardOutput{Discarded: len(entries)}, nil
}

// openFiles resolves local paths into attachable files.
func openFiles(paths []string) ([]project.RawFile, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	files := make([]project.RawFile, 0, len(paths))
	for _, path := range paths {
		f, err := project.NewLocalFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: attachment %q does not exist", project.ErrInvalidInput, path)
			}
			return nil, fmt.Errorf("opening attachment %q: %w", path, err)
		}
		files = append(files, f)
	}
	return files, nil
}
