package shared

import "errors"

// ErrNotFound indicates a resource that does not exist.
var ErrNotFound = errors.New("not found")
