package app

import "errors"

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound         = errors.New("not found")
	ErrPhaseGateBlocked = errors.New("phase gate blocked")
	ErrProjectArchived  = errors.New("project is archived")
)
