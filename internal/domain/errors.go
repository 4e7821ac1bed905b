package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("conflict")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactive           = errors.New("account is deactivated")
	ErrInvalidTransition  = errors.New("invalid booking status transition")
	ErrSlotUnavailable    = errors.New("time slot is not available")
	ErrStorageDisabled    = errors.New("file storage is not configured")
)
