package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrNoContent        = errors.New("no content")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrUnsupportedSize  = errors.New("unsupported image size")
)
