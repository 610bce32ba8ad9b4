package recording

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound = errors.New("no recording session found")
	// ErrSessionTerminal is returned when stop/update hits an already
	// stopped or auto-stopped session.
	ErrSessionTerminal = errors.New("recording already stopped")
	// ErrSessionActive is returned when start would create a second active
	// session for the same (channel, type).
	ErrSessionActive = errors.New("recording already active for this channel")
)

// VendorError is a non-2xx reply from the recording vendor, normalized to
// the {code, reason} shape the vendor embeds in its error bodies.
type VendorError struct {
	Status int
	Code   int
	Reason string
}

func (e *VendorError) Error() string {
	return fmt.Sprintf("vendor rejected request (status %d, code %d): %s", e.Status, e.Code, e.Reason)
}
