package errors

import "errors"

var (
	ErrInvalidStageInput = errors.New("invalid stage input")
	ErrInvalidWindow     = errors.New("stage start time must not be after end time")
	ErrStageNotFound     = errors.New("stage not found")
	ErrCategoryConflict  = errors.New("a stage with this category already exists")
	ErrUnknownAction     = errors.New("unknown eligibility action")
)
