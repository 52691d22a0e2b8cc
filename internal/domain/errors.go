package domain

import "errors"

var (
	ErrQueryTooLong = errors.New("query too long")
	ErrUnknownMode  = errors.New("unknown mode")
)

var (
	ErrInvalidQuota           = errors.New("quota must be between 1 and 50")
	ErrInvalidPerVariantLimit = errors.New("per-variant limit must be between 1 and 20")
)
