package storage

import "errors"

// ErrArchiveClosed is returned when a record is submitted after shutdown began
var ErrArchiveClosed = errors.New("archive is closed")
