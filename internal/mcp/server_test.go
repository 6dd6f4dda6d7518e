package mcp_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/internpm/internal/mcp"
	"github.com/rpggio/internpm/internal/medium"
	"github.com/rpggio/internpm/internal/testserver"
	"github.com/stretchr/testify/require"
)

type projectResp struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	CreatedAt   string               `json:"created_at"`
	UpdatedAt   string               `json:"updated_at"`
	Attachments []mcp.AttachmentView `json:"attachments"`
}

type listResp struct {
	Projects []projectResp `json:"projects"`
	Count    int           `json:"count"`
	Warning  *mcp.APIError `json:"warning"`
}

type quarantineResp struct {
	Entries []struct {
		SavedAt   string `json:"saved_at"`
		Operation string `json:"operation"`
		Bytes     int    `json:"bytes"`
		Raw       string `json:"raw"`
		Dropped   []struct {
			Index int    `json:"index"`
			ID    string `json:"id"`
		} `json:"dropped"`
	} `json:"entries"`
	Count int `json:"count"`
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestPing(t *testing.T) {
	ts := testserver.New(t)

	var out struct {
		Status string `json:"status"`
	}
	ts.CallTool(t, "ping", nil, &out)
	require.Equal(t, "ok", out.Status)
}

func TestProjectToolsRequireLogin(t *testing.T) {
	ts := testserver.New(t)

	for _, name := range []string{"list_projects", "create_project", "get_project", "download_attachments", "export_projects", "repair_store", "get_quarantine", "discard_quarantine"} {
		apiErr := ts.CallToolError(t, name, map[string]any{"id": "x", "title": "x"})
		require.Equal(t, "NOT_LOGGED_IN", apiErr.Code, name)
	}

	var who struct {
		Username string `json:"username"`
		LoggedIn bool   `json:"logged_in"`
	}
	ts.CallTool(t, "whoami", nil, &who)
	require.False(t, who.LoggedIn)
	require.Equal(t, testserver.DefaultProfile.Name, who.Username)

	ts.Login(t, "Ada")
	var list listResp
	ts.CallTool(t, "list_projects", nil, &list)
	require.Empty(t, list.Projects)
	require.Nil(t, list.Warning)

	ts.CallTool(t, "logout", nil, &who)
	require.False(t, who.LoggedIn)
	require.Equal(t, "Ada", who.Username)
	require.Equal(t, "NOT_LOGGED_IN", ts.CallToolError(t, "list_projects", nil).Code)
}

func TestLoginProfile(t *testing.T) {
	ts := testserver.New(t)

	var out struct {
		Username string `json:"username"`
		LoggedIn bool   `json:"logged_in"`
		Theme    string `json:"theme"`
		Profile  struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"profile"`
	}
	ts.CallTool(t, "login", map[string]any{"username": "  Grace "}, &out)
	require.True(t, out.LoggedIn)
	require.Equal(t, "Grace", out.Username)
	require.Equal(t, "Grace", out.Profile.Name)
	require.Equal(t, testserver.DefaultProfile.Email, out.Profile.Email)
	require.Equal(t, "light", out.Theme)
}

func TestThemeTools(t *testing.T) {
	ts := testserver.New(t)

	var theme struct {
		Theme string `json:"theme"`
	}
	ts.CallTool(t, "get_theme", nil, &theme)
	require.Equal(t, "light", theme.Theme)

	ts.CallTool(t, "toggle_theme", nil, &theme)
	require.Equal(t, "dark", theme.Theme)

	value, ok, err := ts.Medium.Get(context.Background(), medium.ThemeKey)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "dark", value)

	ts.CallTool(t, "set_theme", map[string]any{"theme": "light"}, &theme)
	require.Equal(t, "light", theme.Theme)

	require.Equal(t, "INVALID_THEME", ts.CallToolError(t, "set_theme", map[string]any{"theme": "blue"}).Code)
}

func TestProjectLifecycle(t *testing.T) {
	ts := testserver.New(t)
	ts.Login(t, "Ada")

	pngBytes := []byte{0x89, 'P', 'N', 'G', 0, 1, 2, 3}
	notes := writeFile(t, "notes.txt", []byte("hello"))
	image := writeFile(t, "diagram.png", pngBytes)

	var created projectResp
	ts.CallTool(t, "create_project", map[string]any{
		"title":       "  Portfolio  ",
		"description": "Personal site",
		"files":       []string{notes, image},
	}, &created)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "Portfolio", created.Title)
	require.NotEmpty(t, created.CreatedAt)
	require.Empty(t, created.UpdatedAt)
	require.Len(t, created.Attachments, 2)
	require.Equal(t, "notes.txt", created.Attachments[0].Name)
	require.Equal(t, int64(5), created.Attachments[0].SizeBytes)
	require.True(t, strings.HasPrefix(created.Attachments[0].MimeType, "text/plain"))
	require.False(t, created.Attachments[0].Previewable)
	require.Equal(t, "diagram.png", created.Attachments[1].Name)
	require.Equal(t, "image/png", created.Attachments[1].MimeType)
	require.True(t, created.Attachments[1].Previewable)
	require.NotNil(t, created.Attachments[1].LastModified)

	var att struct {
		Name     string `json:"name"`
		MimeType string `json:"mime_type"`
		Payload  string `json:"payload"`
		DataURL  string `json:"data_url"`
		Path     string `json:"path"`
	}
	ts.CallTool(t, "get_attachment", map[string]any{"project_id": created.ID, "index": 1}, &att)
	require.Equal(t, "image/png", att.MimeType)
	require.Equal(t, base64.StdEncoding.EncodeToString(pngBytes), att.Payload)
	require.Equal(t, "data:image/png;base64,"+att.Payload, att.DataURL)

	out := filepath.Join(t.TempDir(), "download.txt")
	var saved struct {
		Payload string `json:"payload"`
		Path    string `json:"path"`
	}
	ts.CallTool(t, "get_attachment", map[string]any{"project_id": created.ID, "index": 0, "output_path": out}, &saved)
	require.Equal(t, out, saved.Path)
	require.Empty(t, saved.Payload)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))

	var updated projectResp
	ts.CallTool(t, "update_project", map[string]any{"id": created.ID, "title": "Portfolio v2"}, &updated)
	require.Equal(t, "Portfolio v2", updated.Title)
	require.Empty(t, updated.Description)
	require.NotEmpty(t, updated.UpdatedAt)
	require.Len(t, updated.Attachments, 2)

	ts.CallTool(t, "update_project", map[string]any{"id": created.ID, "title": "Portfolio v3", "files": []string{image}}, &updated)
	require.Len(t, updated.Attachments, 1)
	require.Equal(t, "diagram.png", updated.Attachments[0].Name)

	var fetched projectResp
	ts.CallTool(t, "get_project", map[string]any{"id": created.ID}, &fetched)
	require.Equal(t, updated, fetched)

	var deleted struct {
		Deleted bool `json:"deleted"`
	}
	ts.CallTool(t, "delete_project", map[string]any{"id": created.ID}, &deleted)
	require.True(t, deleted.Deleted)

	require.Equal(t, "PROJECT_NOT_FOUND", ts.CallToolError(t, "get_project", map[string]any{"id": created.ID}).Code)
	require.Equal(t, "PROJECT_NOT_FOUND", ts.CallToolError(t, "delete_project", map[string]any{"id": created.ID}).Code)
}

func TestProjectToolErrors(t *testing.T) {
	ts := testserver.New(t)
	ts.Login(t, "Ada")

	require.Equal(t, "VALIDATION_ERROR", ts.CallToolError(t, "create_project", map[string]any{"title": "   "}).Code)

	missing := filepath.Join(t.TempDir(), "missing.pdf")
	require.Equal(t, "VALIDATION_ERROR", ts.CallToolError(t, "create_project", map[string]any{
		"title": "Docs",
		"files": []string{missing},
	}).Code)

	var created projectResp
	ts.CallTool(t, "create_project", map[string]any{"title": "Docs"}, &created)
	require.Empty(t, created.Attachments)

	apiErr := ts.CallToolError(t, "get_attachment", map[string]any{"project_id": created.ID, "index": 0})
	require.Equal(t, "INDEX_OUT_OF_RANGE", apiErr.Code)

	require.Equal(t, "VALIDATION_ERROR", ts.CallToolError(t, "update_project", map[string]any{"id": created.ID, "title": ""}).Code)
	require.Equal(t, "PROJECT_NOT_FOUND", ts.CallToolError(t, "update_project", map[string]any{"id": "nope", "title": "x"}).Code)
}

func TestListProjectsNewestFirstAndSearch(t *testing.T) {
	ts := testserver.New(t)
	ts.Login(t, "Ada")

	for _, p := range []struct{ title, desc string }{
		{"Weather app", "React and an API"},
		{"Budget tracker", "spreadsheets"},
		{"Blog", "static site about weather"},
	} {
		ts.CallTool(t, "create_project", map[string]any{"title": p.title, "description": p.desc}, nil)
	}

	var list listResp
	ts.CallTool(t, "list_projects", nil, &list)
	require.Equal(t, 3, list.Count)
	require.Equal(t, "Blog", list.Projects[0].Title)
	require.Equal(t, "Weather app", list.Projects[2].Title)

	ts.CallTool(t, "list_projects", map[string]any{"query": "WEATHER"}, &list)
	require.Equal(t, 2, list.Count)
	require.Equal(t, "Blog", list.Projects[0].Title)
	require.Equal(t, "Weather app", list.Projects[1].Title)

	ts.CallTool(t, "list_projects", map[string]any{"query": "nothing matches"}, &list)
	require.Zero(t, list.Count)
	require.NotNil(t, list.Projects)
}

func TestQuotaExceededKeepsCollection(t *testing.T) {
	ts := testserver.New(t, testserver.WithQuota(2048))
	ts.Login(t, "Ada")

	ts.CallTool(t, "create_project", map[string]any{"title": "Small"}, nil)

	big := writeFile(t, "big.bin", make([]byte, 4096))
	apiErr := ts.CallToolError(t, "create_project", map[string]any{"title": "Big", "files": []string{big}})
	require.Equal(t, "QUOTA_EXCEEDED", apiErr.Code)

	var list listResp
	ts.CallTool(t, "list_projects", nil, &list)
	require.Equal(t, 1, list.Count)
	require.Equal(t, "Small", list.Projects[0].Title)
}

func TestCorruptStoreRecovery(t *testing.T) {
	ts := testserver.New(t)
	ts.Login(t, "Ada")
	ctx := context.Background()

	doc := `[
		{"id":"good","title":"Readable","description":"","created_at":"2024-03-01T10:00:00Z","attachments":[]},
		{"id":"bad","title":7}
	]`
	require.NoError(t, ts.Medium.Set(ctx, medium.ProjectsKey, doc))

	var list listResp
	ts.CallTool(t, "list_projects", nil, &list)
	require.Equal(t, 1, list.Count)
	require.Equal(t, "good", list.Projects[0].ID)
	require.NotNil(t, list.Warning)
	require.Equal(t, "CORRUPT_STORE", list.Warning.Code)

	apiErr := ts.CallToolError(t, "create_project", map[string]any{"title": "New"})
	require.Equal(t, "CORRUPT_STORE", apiErr.Code)
	require.NotEmpty(t, apiErr.RecoveryHint)

	var repaired struct {
		Quarantined []struct {
			Index int    `json:"index"`
			ID    string `json:"id"`
		} `json:"quarantined"`
	}
	ts.CallTool(t, "repair_store", nil, &repaired)
	require.Len(t, repaired.Quarantined, 1)
	require.Equal(t, 1, repaired.Quarantined[0].Index)

	ts.CallTool(t, "create_project", map[string]any{"title": "New"}, nil)
	list = listResp{}
	ts.CallTool(t, "list_projects", nil, &list)
	require.Equal(t, 2, list.Count)
	require.Nil(t, list.Warning)

	var quarantine quarantineResp
	ts.CallTool(t, "get_quarantine", nil, &quarantine)
	require.Equal(t, 1, quarantine.Count)
	require.Equal(t, "repair", quarantine.Entries[0].Operation)
	require.Equal(t, len(doc), quarantine.Entries[0].Bytes)
	require.Empty(t, quarantine.Entries[0].Raw)
	require.Len(t, quarantine.Entries[0].Dropped, 1)
	require.Equal(t, "bad", quarantine.Entries[0].Dropped[0].ID)
}

func TestCorruptDocumentReset(t *testing.T) {
	ts := testserver.New(t)
	ts.Login(t, "Ada")
	ctx := context.Background()

	require.NoError(t, ts.Medium.Set(ctx, medium.ProjectsKey, `{"not":"an array"}`))

	require.Equal(t, "CORRUPT_STORE", ts.CallToolError(t, "list_projects", nil).Code)
	require.Equal(t, "CORRUPT_STORE", ts.CallToolError(t, "repair_store", nil).Code)

	var reset struct {
		Reset bool `json:"reset"`
	}
	ts.CallTool(t, "reset_store", nil, &reset)
	require.True(t, reset.Reset)

	var list listResp
	ts.CallTool(t, "list_projects", nil, &list)
	require.Zero(t, list.Count)

	// A second reset appends to the quarantine instead of replacing it
	ts.CallTool(t, "create_project", map[string]any{"title": "After reset"}, nil)
	ts.CallTool(t, "reset_store", nil, &reset)

	var quarantine quarantineResp
	ts.CallTool(t, "get_quarantine", map[string]any{"include_raw": true}, &quarantine)
	require.Equal(t, 2, quarantine.Count)
	require.Equal(t, "reset", quarantine.Entries[0].Operation)
	require.Equal(t, `{"not":"an array"}`, quarantine.Entries[0].Raw)
	require.NotEmpty(t, quarantine.Entries[0].SavedAt)
	require.Contains(t, quarantine.Entries[1].Raw, "After reset")

	var discarded struct {
		Discarded int `json:"discarded"`
	}
	ts.CallTool(t, "discard_quarantine", nil, &discarded)
	require.Equal(t, 2, discarded.Discarded)

	quarantine = quarantineResp{}
	ts.CallTool(t, "get_quarantine", nil, &quarantine)
	require.Zero(t, quarantine.Count)
	_, ok, err := ts.Medium.Get(ctx, medium.ProjectsQuarantineKey)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestResetFullStore(t *testing.T) {
	ts := testserver.New(t)
	ts.Login(t, "Ada")
	ctx := context.Background()

	doc := `"` + strings.Repeat("x", 3<<20) + `"`
	require.NoError(t, ts.Medium.Set(ctx, medium.ProjectsKey, doc))
	require.Equal(t, "CORRUPT_STORE", ts.CallToolError(t, "list_projects", nil).Code)

	ts.CallTool(t, "reset_store", nil, nil)

	var quarantine quarantineResp
	ts.CallTool(t, "get_quarantine", nil, &quarantine)
	require.Equal(t, 1, quarantine.Count)
	require.Equal(t, len(doc), quarantine.Entries[0].Bytes)

	ts.CallTool(t, "create_project", map[string]any{"title": "Fresh start"}, nil)
}

func TestDownloadAttachments(t *testing.T) {
	ts := testserver.New(t)
	ts.Login(t, "Ada")

	var created projectResp
	ts.CallTool(t, "create_project", map[string]any{
		"title": "Downloads",
		"files": []string{
			writeFile(t, "notes.txt", []byte("one")),
			writeFile(t, "notes.txt", []byte("two")),
			writeFile(t, "diagram.png", []byte{0x89, 'P', 'N', 'G'}),
		},
	}, &created)

	dir := t.TempDir()
	existing := filepath.Join(dir, "diagram.png")
	require.NoError(t, os.WriteFile(existing, []byte("keep me"), 0o644))

	var out struct {
		ProjectID string `json:"project_id"`
		Directory string `json:"directory"`
		Files     []struct {
			Index     int    `json:"index"`
			Name      string `json:"name"`
			Path      string `json:"path"`
			SizeBytes int64  `json:"size_bytes"`
		} `json:"files"`
	}
	ts.CallTool(t, "download_attachments", map[string]any{"project_id": created.ID, "directory": dir}, &out)
	require.Equal(t, created.ID, out.ProjectID)
	require.Len(t, out.Files, 3)

	names := make([]string, 0, len(out.Files))
	for _, f := range out.Files {
		names = append(names, f.Name)
	}
	require.Equal(t, []string{"notes.txt", "notes (1).txt", "diagram (1).png"}, names)

	data, err := os.ReadFile(out.Files[1].Path)
	require.NoError(t, err)
	require.Equal(t, "two", string(data))
	require.Equal(t, int64(3), out.Files[1].SizeBytes)

	data, err = os.ReadFile(existing)
	require.NoError(t, err)
	require.Equal(t, "keep me", string(data))

	// A missing directory is created
	nested := filepath.Join(t.TempDir(), "a", "b")
	out.Files = nil
	ts.CallTool(t, "download_attachments", map[string]any{"project_id": created.ID, "directory": nested}, &out)
	require.Len(t, out.Files, 3)
	require.FileExists(t, filepath.Join(nested, "notes (1).txt"))

	apiErr := ts.CallToolError(t, "download_attachments", map[string]any{"project_id": "missing", "directory": dir})
	require.Equal(t, "PROJECT_NOT_FOUND", apiErr.Code)
}

func TestExportProjects(t *testing.T) {
	ts := testserver.New(t)
	ts.Login(t, "Ada")

	ts.CallTool(t, "create_project", map[string]any{
		"title": "Exported",
		"files": []string{writeFile(t, "a.txt", []byte("abc"))},
	}, nil)

	dir := t.TempDir()
	var out struct {
		FileName     string `json:"file_name"`
		Path         string `json:"path"`
		ProjectCount int    `json:"project_count"`
	}
	ts.CallTool(t, "export_projects", map[string]any{"directory": dir}, &out)
	require.Equal(t, 1, out.ProjectCount)
	require.True(t, strings.HasPrefix(out.FileName, "intern-projects-backup-"))
	require.Equal(t, filepath.Join(dir, out.FileName), out.Path)

	data, err := os.ReadFile(out.Path)
	require.NoError(t, err)

	var doc struct {
		Profile struct {
			Name string `json:"name"`
		} `json:"profile"`
		Projects []struct {
			Title       string `json:"title"`
			Attachments []struct {
				Payload string `json:"payload"`
			} `json:"attachments"`
		} `json:"projects"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Equal(t, "Ada", doc.Profile.Name)
	require.Len(t, doc.Projects, 1)
	require.Equal(t, "Exported", doc.Projects[0].Title)
	require.Equal(t, base64.StdEncoding.EncodeToString([]byte("abc")), doc.Projects[0].Attachments[0].Payload)
}

func TestDocResources(t *testing.T) {
	ts := testserver.New(t)
	ctx := context.Background()

	list, err := ts.Session.ListResources(ctx, nil)
	require.NoError(t, err)
	uris := make([]string, 0, len(list.Resources))
	for _, r := range list.Resources {
		uris = append(uris, r.URI)
	}
	require.Contains(t, uris, "internpm://docs/index")
	require.Contains(t, uris, "internpm://docs/storage")

	res, err := ts.Session.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "internpm://docs/index"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	require.Contains(t, res.Contents[0].Text, "NOT_LOGGED_IN")
}
