package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/internpm/internal/codec"
	"github.com/rpggio/internpm/internal/domain/project"
	"github.com/rpggio/internpm/internal/domain/session"
	"github.com/rpggio/internpm/internal/medium"
	"github.com/rpggio/internpm/internal/store"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes. Unknown errors map to nil.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var corrupt *store.CorruptError
	switch {
	case errors.Is(err, project.ErrInvalidInput):
		return &APIError{Code: "VALIDATION_ERROR", Message: err.Error(), RecoveryHint: "Provide a non-empty title"}
	case errors.Is(err, project.ErrProjectNotFound):
		return &APIError{Code: "PROJECT_NOT_FOUND", Message: "project not found", RecoveryHint: "Call list_projects for valid ids"}
	case errors.Is(err, project.ErrIndexOutOfRange):
		return &APIError{Code: "INDEX_OUT_OF_RANGE", Message: "attachment index out of range", RecoveryHint: "Use an index from the project's attachments"}
	case errors.Is(err, project.ErrIDExhausted):
		return &APIError{Code: "ID_EXHAUSTED", Message: err.Error(), RecoveryHint: "Retry the request"}
	case errors.Is(err, medium.ErrQuotaExceeded):
		return &APIError{Code: "QUOTA_EXCEEDED", Message: "storage quota exceeded", RecoveryHint: "Remove attachments or delete projects"}
	case errors.As(err, &corrupt):
		return &APIError{
			Code:         "CORRUPT_STORE",
			Message:      err.Error(),
			Details:      corrupt.Quarantined,
			RecoveryHint: "Call repair_store to quarantine unreadable records or reset_store to start over",
		}
	case errors.Is(err, store.ErrCorrupt):
		return &APIError{Code: "CORRUPT_STORE", Message: err.Error(), RecoveryHint: "Call repair_store or reset_store"}
	case errors.Is(err, project.ErrRecoveryUnsupported):
		return &APIError{Code: "RECOVERY_UNSUPPORTED", Message: err.Error()}
	case errors.Is(err, codec.ErrDecode):
		return &APIError{Code: "DECODE_ERROR", Message: err.Error()}
	case errors.Is(err, session.ErrNotLoggedIn):
		return &APIError{Code: "NOT_LOGGED_IN", Message: "not logged in", RecoveryHint: "Call login first"}
	case errors.Is(err, session.ErrInvalidTheme):
		return &APIError{Code: "INVALID_THEME", Message: err.Error(), RecoveryHint: "Use light or dark"}
	default:
		return nil
	}
}

// errorResult renders a mapped domain error as a tool error. Unmapped errors
// are returned as-is and reported by the SDK.
func errorResult(err error) (*sdkmcp.CallToolResult, error) {
	apiErr := MapError(err)
	if apiErr == nil {
		return nil, err
	}
	return apiErrorResult(apiErr), nil
}

func apiErrorResult(apiErr *APIError) *sdkmcp.CallToolResult {
	data, err := json.Marshal(apiErr)
	if err != nil {
		data = []byte(apiErr.Error())
	}
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}
}
