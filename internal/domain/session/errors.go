package session

import "errors"

var (
	// ErrNotLoggedIn indicates an operation that requires a login.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrInvalidTheme indicates a theme other than light or dark.
	ErrInvalidTheme = errors.New("invalid theme")
)
