package ingest

import "errors"

var (
	// ErrUnsupportedExtension is returned for files whose extension no source kind accepts.
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	// ErrUnreadableFile is returned when the uploaded file cannot be opened or read.
	ErrUnreadableFile = errors.New("file is not readable")
	// ErrMalformedJSON is returned when a .json upload is not a JSON array.
	ErrMalformedJSON = errors.New("malformed JSON array")
	// ErrStoreUnavailable is returned when the relational or vector store rejects a write.
	// No further units of the same import are attempted.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrBlankInput marks a unit with nothing to clean.
	ErrBlankInput = errors.New("input is blank")
	// ErrEmptyCleanup marks a unit whose cleanup produced no text.
	ErrEmptyCleanup = errors.New("cleanup produced no text")
	// ErrOffline is returned for media files when the network is required but unreachable.
	ErrOffline = errors.New("network is unreachable")
)
