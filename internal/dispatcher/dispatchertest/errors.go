package dispatchertest

import (
	"fmt"

	"github.com/rndmzd/hallmonitor/internal/dispatcher"
)

var errNotFound = fmt.Errorf("fake channel lookup: %w", dispatcher.ErrNotFound)

// PermissionDenied returns an error classified as dispatcher.ErrPermissionDenied.
func PermissionDenied(op string) error {
	return fmt.Errorf("%s: %w", op, dispatcher.ErrPermissionDenied)
}
