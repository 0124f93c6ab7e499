package util

import "errors"

var (
	ErrNoExtractedText   = errors.New("lesson has no extracted text")
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrDocumentTooLarge  = errors.New("document exceeds the size limit")
	ErrEmptyDocument     = errors.New("no readable text found in document")
	ErrOracleNoChoices   = errors.New("model returned no choices")
)
