package domain

import "errors"

// Error taxonomy shared by flows and adapters. Flow code converts
// collaborator failures into one of these before building a user-visible
// message; anything else is treated as a storage fault.
var (
	ErrUnsupportedSource = errors.New("source is not supported")
	ErrFetchFailed       = errors.New("content fetch failed")
	ErrGenerationFailed  = errors.New("generation failed")
	ErrDuplicate         = errors.New("already stored")
)
