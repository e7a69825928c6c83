package tissue

import (
	"errors"
	"fmt"
)

// ErrEmptyMask reports that the inclusion mask selects no voxels, so there is
// nothing to fit a model to. It is raised before any fitting starts.
var ErrEmptyMask = errors.New("tissue: inclusion mask selects no voxels")

// FitError wraps a failure of the underlying clustering or mixture fit, such
// as degenerate input or a diverged optimization. No partial mask is produced
// alongside it.
type FitError struct {
	Err error
}

func (e *FitError) Error() string {
	return fmt.Sprintf("tissue: model fit failed: %v", e.Err)
}

func (e *FitError) Unwrap() error {
	return e.Err
}
