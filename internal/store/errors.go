package store

import domainerrors "github.com/arcadesongs/arcadesongs-server/internal/errors"

// ErrNotFound is returned when a record does not exist.
// It matches domainerrors.ErrNotFound under errors.Is.
var ErrNotFound = domainerrors.NotFound("record not found")
