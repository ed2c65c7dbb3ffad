package pdfops

import "errors"

var (
	// ErrUnreadable wraps any failure to parse bytes as a PDF.
	ErrUnreadable = errors.New("unreadable pdf")

	ErrInvalidRange    = errors.New("invalid page range")
	ErrDeleteAllPages  = errors.New("cannot delete all pages")
	ErrInvalidAngle    = errors.New("rotation must be a multiple of 90 degrees")
	ErrInvalidOrder    = errors.New("page order must list every page exactly once")
	ErrEmptyWatermark  = errors.New("watermark text is empty")
	ErrInvalidPosition = errors.New("unknown page number position")
	ErrNoSources       = errors.New("nothing to merge")
	ErrNoImages        = errors.New("no images generated")
)

// IsValidation reports whether err was caused by caller input rather than
// by the document or the engine.
func IsValidation(err error) bool {
	for _, target := range []error{ErrInvalidRange, ErrDeleteAllPages, ErrInvalidAngle, ErrInvalidOrder, ErrEmptyWatermark, ErrInvalidPosition, ErrNoSources, ErrNoImages} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
