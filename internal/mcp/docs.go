package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `internpm is a personal project tracker. Projects carry a title, a description
and embedded file attachments, all kept in one local store.

Workflow:
1) login (any display name) before using project tools; logout keeps the name.
2) list_projects (optionally with query) to browse; newest projects come first.
3) create_project / update_project with local file paths in files[]. Updating
   with files replaces every attachment; omitting files keeps them.
4) get_attachment returns the base64 payload, or writes the file to output_path.
   download_attachments saves every attachment of a project into a directory.
5) export_projects writes a dated JSON backup.

If a tool reports CORRUPT_STORE, call repair_store to set unreadable projects
aside, or reset_store to start over. Both keep a backup copy that
get_quarantine lists and discard_quarantine deletes.

Docs:
- internpm://docs/index
- internpm://docs/storage
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "internpm://docs/index",
		Name:        "docs_index",
		Title:       "internpm docs index",
		Description: "Tools, error codes and the login gate.",
		Content: `# internpm

## Tools

| Tool | Login | Purpose |
|------|-------|---------|
| ` + "`login`" + ` / ` + "`logout`" + ` / ` + "`whoami`" + ` | no | Session and profile |
| ` + "`get_theme`" + ` / ` + "`set_theme`" + ` / ` + "`toggle_theme`" + ` | no | Light or dark color scheme |
| ` + "`create_project`" + ` / ` + "`update_project`" + ` / ` + "`delete_project`" + ` | yes | Mutations |
| ` + "`get_project`" + ` / ` + "`list_projects`" + ` | yes | Reads; list accepts ` + "`query`" + ` |
| ` + "`get_attachment`" + ` | yes | Attachment bytes by zero-based index |
| ` + "`download_attachments`" + ` | yes | Every attachment of a project written into a directory |
| ` + "`export_projects`" + ` | yes | Backup file ` + "`intern-projects-backup-<timestamp>.json`" + ` |
| ` + "`repair_store`" + ` / ` + "`reset_store`" + ` | yes | Recovery from an unreadable store |
| ` + "`get_quarantine`" + ` / ` + "`discard_quarantine`" + ` | yes | Inspect or delete recovery backups |

## Error codes

- ` + "`VALIDATION_ERROR`" + `: empty title or unreadable attachment path.
- ` + "`PROJECT_NOT_FOUND`" + `: unknown id.
- ` + "`INDEX_OUT_OF_RANGE`" + `: attachment index outside the project's attachments.
- ` + "`QUOTA_EXCEEDED`" + `: the store is full; nothing was changed.
- ` + "`CORRUPT_STORE`" + `: stored projects could not be read. ` + "`details`" + ` lists unreadable records.
- ` + "`DECODE_ERROR`" + `: an attachment payload is not valid base64.
- ` + "`NOT_LOGGED_IN`" + `: call ` + "`login`" + ` first.
- ` + "`INVALID_THEME`" + `: use ` + "`light`" + ` or ` + "`dark`" + `.
- ` + "`RECOVERY_UNSUPPORTED`" + `: the configured store cannot repair or reset.
`,
	},
	{
		URI:         "internpm://docs/storage",
		Name:        "docs_storage",
		Title:       "internpm storage model",
		Description: "How projects and attachments are persisted and recovered.",
		Content: `# Storage

All projects are one JSON document under the key ` + "`ip_projects_v1`" + `, newest first.
Every mutation rewrites the whole document, so a failed save (for example
` + "`QUOTA_EXCEEDED`" + `) leaves the previous collection intact.

Attachments are embedded as standard base64 with their name, mime type, size in
bytes and last-modified time in epoch milliseconds. Records written by older
versions (camelCase fields, ` + "`files`" + ` instead of ` + "`attachments`" + `, data URLs) are read
and rewritten in the current shape on the next save.

## Unreadable data

- A document that is not a JSON array is reported as ` + "`CORRUPT_STORE`" + ` and no
  mutation is attempted.
- Individual unreadable records are skipped when listing; the listing carries a
  warning. Mutations stay blocked until ` + "`repair_store`" + ` drops them.
- ` + "`reset_store`" + ` saves an empty collection.
- Both first append the stored document to ` + "`ip_projects_v1_quarantine`" + `. The
  quarantine is not counted against the quota, so recovery works on a full
  store. It keeps the 10 newest entries; ` + "`get_quarantine`" + ` lists them
  (` + "`include_raw`" + ` returns the documents) and ` + "`discard_quarantine`" + ` frees them.
- Recovery waits for in-flight project operations to finish.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
