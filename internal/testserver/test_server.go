// Package testserver wires the full service stack behind an in-memory MCP
// connection for tests.
package testserver

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/internpm/internal/domain/export"
	"github.com/rpggio/internpm/internal/domain/project"
	"github.com/rpggio/internpm/internal/domain/session"
	"github.com/rpggio/internpm/internal/mcp"
	"github.com/rpggio/internpm/internal/medium"
	"github.com/rpggio/internpm/internal/store"
	"github.com/stretchr/testify/require"
)

// DefaultProfile is the profile used unless overridden.
var DefaultProfile = session.Profile{Name: "Intern", Role: "Frontend Intern", Email: "intern@example.com"}

type TestServer struct {
	Session  *sdkmcp.ClientSession
	Medium   *medium.Memory
	Projects *project.Service
}

type options struct {
	quota   int64
	profile session.Profile
}

// Option configures a TestServer.
type Option func(*options)

// WithQuota sets the medium quota in bytes.
func WithQuota(bytes int64) Option {
	return func(o *options) { o.quota = bytes }
}

// WithProfile sets the default profile.
func WithProfile(p session.Profile) Option {
	return func(o *options) { o.profile = p }
}

func New(t *testing.T, opts ...Option) *TestServer {
	t.Helper()

	o := options{quota: medium.DefaultQuotaBytes, profile: DefaultProfile}
	for _, opt := range opts {
		opt(&o)
	}

	mem := medium.NewMemory(o.quota)
	st := store.New(mem, nil)
	projects := project.NewService(st, nil)
	sessions := session.NewService(mem, o.profile, nil)
	exports := export.NewService(projects, sessions, nil)

	server := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Projects: projects,
			Sessions: sessions,
			Export:   exports,
			Recovery: projects,
		},
		TransportMode: "stdio",
	})

	ctx := context.Background()
	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	clientSession, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = clientSession.Close()
		_ = serverSession.Wait()
	})

	return &TestServer{
		Session:  clientSession,
		Medium:   mem,
		Projects: projects,
	}
}

// Call invokes a tool and returns the raw result.
func (ts *TestServer) Call(t *testing.T, name string, args map[string]any) *sdkmcp.CallToolResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if args == nil {
		args = map[string]any{}
	}
	result, err := ts.Session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err, "CallTool %s failed", name)
	return result
}

// CallTool invokes a tool that must succeed and decodes its JSON output into out.
func (ts *TestServer) CallTool(t *testing.T, name string, args map[string]any, out any) {
	t.Helper()
	result := ts.Call(t, name, args)
	text := textContent(t, result)
	require.False(t, result.IsError, "tool %s returned error: %s", name, text)
	if out != nil {
		require.NoError(t, json.Unmarshal([]byte(text), out))
	}
}

// CallToolError invokes a tool that must fail with a mapped error.
func (ts *TestServer) CallToolError(t *testing.T, name string, args map[string]any) mcp.APIError {
	t.Helper()
	result := ts.Call(t, name, args)
	text := textContent(t, result)
	require.True(t, result.IsError, "tool %s succeeded: %s", name, text)

	var apiErr mcp.APIError
	require.NoError(t, json.Unmarshal([]byte(text), &apiErr), "tool %s error is not structured: %s", name, text)
	return apiErr
}

// Login logs in as username.
func (ts *TestServer) Login(t *testing.T, username string) {
	t.Helper()
	ts.CallTool(t, "login", map[string]any{"username": username}, nil)
}

func textContent(t *testing.T, result *sdkmcp.CallToolResult) string {
	t.Helper()
	for _, content := range result.Content {
		if text, ok := content.(*sdkmcp.TextContent); ok {
			return text.Text
		}
	}
	t.Fatalf("result has no text content")
	return ""
}
