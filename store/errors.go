package store

import (
	"github.com/ayoisaiah/cranio/internal/apperr"
)

var (
	ErrAlreadyRunning = &apperr.Error{
		Message: "is cranio already running? Only one instance can use the database at a time",
	}

	ErrDocumentNotFound = &apperr.Error{
		Message: "document %s not found",
	}

	ErrNewerSchema = &apperr.Error{
		Message: "database schema version %d is newer than this build supports (%d): please upgrade cranio",
	}
)
