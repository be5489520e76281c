package service

import "errors"

var (
	ErrUploadNotFound       = errors.New("upload session not found")
	ErrUnsupportedMedia     = errors.New("unsupported media type")
	ErrGenerationInProgress = errors.New("generation already in progress")
)
