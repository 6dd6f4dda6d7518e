package project

import "errors"

var (
	// ErrProjectNotFound indicates the project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")
	// ErrInvalidInput indicates invalid project input.
	ErrInvalidInput = errors.New("invalid project input")
	// ErrIndexOutOfRange indicates an attachment index outside the project's attachments.
	ErrIndexOutOfRange = errors.New("attachment index out of range")
	// ErrIDExhausted indicates no unused project id could be generated.
	ErrIDExhausted = errors.New("could not allocate a unique project id")
	// ErrRecoveryUnsupported indicates the store cannot repair or reset itself.
	ErrRecoveryUnsupported = errors.New("store does not support recovery")
)
