package mcp

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rpggio/internpm/internal/codec"
	"github.com/rpggio/internpm/internal/domain/project"
	"github.com/rpggio/internpm/internal/domain/session"
	"github.com/rpggio/internpm/internal/medium"
	"github.com/rpggio/internpm/internal/store"
	"github.com/stretchr/testify/require"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{project.ErrInvalidInput, "VALIDATION_ERROR"},
		{fmt.Errorf("updating: %w", project.ErrProjectNotFound), "PROJECT_NOT_FOUND"},
		{project.ErrIndexOutOfRange, "INDEX_OUT_OF_RANGE"},
		{project.ErrIDExhausted, "ID_EXHAUSTED"},
		{fmt.Errorf("saving projects: %w", medium.ErrQuotaExceeded), "QUOTA_EXCEEDED"},
		{fmt.Errorf("loading: %w", &store.CorruptError{Cause: errors.New("bad json")}), "CORRUPT_STORE"},
		{project.ErrRecoveryUnsupported, "RECOVERY_UNSUPPORTED"},
		{fmt.Errorf("decoding attachment: %w", codec.ErrDecode), "DECODE_ERROR"},
		{session.ErrNotLoggedIn, "NOT_LOGGED_IN"},
		{fmt.Errorf("%w: %q", session.ErrInvalidTheme, "blue"), "INVALID_THEME"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			apiErr := MapError(tt.err)
			require.NotNil(t, apiErr)
			require.Equal(t, tt.code, apiErr.Code)
		})
	}

	require.Nil(t, MapError(nil))
	require.Nil(t, MapError(errors.New("disk on fire")))
}

func TestMapError_CorruptDetails(t *testing.T) {
	corrupt := &store.CorruptError{Quarantined: []project.QuarantinedRecord{{Index: 2, Reason: "missing id"}}}
	apiErr := MapError(fmt.Errorf("loading projects: %w", corrupt))
	require.Equal(t, "CORRUPT_STORE", apiErr.Code)
	require.Equal(t, corrupt.Quarantined, apiErr.Details)
}

func TestErrorResult(t *testing.T) {
	res, err := errorResult(project.ErrProjectNotFound)
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Len(t, res.Content, 1)

	plain := errors.New("unexpected")
	res, err = errorResult(plain)
	require.Nil(t, res)
	require.Equal(t, plain, err)
}

func TestFormatPayloadTruncates(t *testing.T) {
	long := make([]byte, maxLoggedPayload*2)
	for i := range long {
		long[i] = 'a'
	}
	out := formatPayload(string(long))
	require.Contains(t, out, "...(")
	require.Less(t, len(out), maxLoggedPayload+32)
	require.Equal(t, "<nil>", formatPayload(nil))
}
