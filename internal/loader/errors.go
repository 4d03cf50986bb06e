package loader

import (
	"errors"
	"fmt"
)

// ErrNotHandled is returned when a URL is outside the configured network
// schemes and no next handler was supplied to delegate to.
var ErrNotHandled = errors.New("url not handled by network loader")

// PersistError reports a failed write-through to the cache. It is fatal: a
// silently broken cache would turn every load into a network fetch.
type PersistError struct {
	URL string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.URL, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}
