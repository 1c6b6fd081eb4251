package domain

import "errors"

var (
	ErrBusy          = errors.New("another generation is already in progress")
	ErrInvalidSlot   = errors.New("slot index out of range")
	ErrEmptyPrompt   = errors.New("edit prompt must not be empty")
	ErrMissingCopy   = errors.New("headline and description are required")
	ErrMissingAssets = errors.New("at least one product image is required")
	ErrSessionClosed = errors.New("edit session is closed")
	ErrNoResults     = errors.New("no generated ads available")
)
