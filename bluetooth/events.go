package bluetooth

import "strings"

// PillTakenSentinel is the payload the pin notifies when its button is
// pressed.
const PillTakenSentinel = "PILL_TAKEN"

// DecodePayload interprets an inbound notification as UTF-8 text.
func DecodePayload(data []byte) string {
	return string(data)
}

// IsPillTakenEvent reports whether a decoded payload is the pin's
// button-press sentinel. Matching trims surrounding whitespace and is
// case-sensitive. Callers ignore everything else without raising an
// error: unrecognized payloads are a normal, silent case.
func IsPillTakenEvent(text string) bool {
	return strings.TrimSpace(text) == PillTakenSentinel
}
