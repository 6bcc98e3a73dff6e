package storage

import "errors"

var (
	// ErrPathEscapesBase is returned for paths resolving outside their root
	ErrPathEscapesBase = errors.New("path escapes base directory")

	// ErrUnknownScope is returned for a directory scope without a configured root
	ErrUnknownScope = errors.New("unknown directory scope")

	// ErrUnsupportedEncoding is returned for a write encoding the sandbox cannot decode
	ErrUnsupportedEncoding = errors.New("unsupported encoding")
)
