// Package session implements the interactive annotation state machine.
//
// A Session owns one user's labeling state: the carousel position, the
// markers placed on the current image, the active label, the marker radius
// and the viewport. Events arrive one at a time through Dispatch, which
// applies exactly one transition and returns a Result carrying the render
// instruction, the active label, the image index and the serialized
// markers.
//
// # Events
//
//   - Click: place a marker for the active label, then advance the label.
//     Ignored when the active label already has a marker.
//   - Drag: replace the outline of one marker; nothing else changes.
//   - Resize: refit every marker's center and redraw it at the new radius,
//     which also becomes the radius of future clicks.
//   - Navigate: move the carousel, drop all markers, reset the label.
//   - Clear: drop all markers and reset the label.
//   - Save: fit every marker's center and hand the record to the SaveSink.
//   - ViewportChange: zoom or autorange; display only.
//   - Select: make a subset label active.
//   - Noop: nothing actionable; the state is returned unchanged.
//
// Label advancement stops at the last subset label and never wraps, so once
// every label is placed further clicks are ignored.
//
// # Error Handling
//
// Invalid payloads and malformed drags leave the session unchanged and are
// reported to the caller. A marker whose outline cannot be fitted keeps its
// previous outline on resize and is left out of save records; it is listed
// in Result.Warnings. A broken invariant, such as an active label outside
// the subset, aborts the session.
package session
