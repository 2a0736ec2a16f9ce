package entity

import "errors"

var (
	// ErrLaunch is fatal: the browser could not be started.
	ErrLaunch      = errors.New("launch failed")
	ErrNavigate    = errors.New("navigation failed")
	ErrSyncTimeout = errors.New("render synchronization timed out")
	ErrExtract     = errors.New("frame extraction failed")
	ErrCatalog     = errors.New("catalog advance failed")
)
