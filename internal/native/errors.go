package native

import "github.com/pkg/errors"

// ErrBackendUnavailable reports that the native layer is unreachable or lacks a
// required operation.
var ErrBackendUnavailable = errors.New("foo backend unavailable")
