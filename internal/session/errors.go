package session

import "errors"

var (
	// ErrInvalidEvent marks an event whose payload failed validation. The
	// session state is unchanged.
	ErrInvalidEvent = errors.New("invalid event")

	// ErrMalformedDrag marks a drag whose path is unusable or whose shape
	// index does not address a marker. The session state is unchanged.
	ErrMalformedDrag = errors.New("malformed drag")

	// ErrMalformedState marks a serialized annotation state that cannot be
	// restored into this session.
	ErrMalformedState = errors.New("malformed annotation state")

	// ErrSaveFailed wraps an error returned by the save sink.
	ErrSaveFailed = errors.New("save failed")

	// ErrInvariant marks a broken session invariant. It indicates a bug,
	// aborts the session and must not be swallowed.
	ErrInvariant = errors.New("session invariant violated")

	// ErrSessionAborted is returned for every event after an invariant
	// violation.
	ErrSessionAborted = errors.New("session aborted")
)

// IsRecoverable reports whether err left the session usable.
func IsRecoverable(err error) bool {
	return err != nil && !errors.Is(err, ErrInvariant) && !errors.Is(err, ErrSessionAborted)
}
