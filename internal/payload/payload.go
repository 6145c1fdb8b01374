package payload

import (
	"regexp"
	"strings"
)

// Recognized field keys embedded in a booking QR payload.
const (
	KeyBookingID  = "Booking ID"
	KeyPlayground = "Playground"
	KeyDate       = "Date"
	KeyTime       = "Time"
	KeyPrice      = "Price"
	KeyUser       = "User"
	KeyStatus     = "Status"
)

// DisplayKeys is the field order used when rendering a scan result.
var DisplayKeys = []string{KeyBookingID, KeyPlayground, KeyDate, KeyTime, KeyPrice, KeyUser}

// FieldMap holds the parsed key/value lines of a decoded QR payload.
// Keys are unique; insertion order is not significant.
type FieldMap map[string]string

// QR generators sometimes emit the two-character sequence `\n` instead of a
// real newline, so both are treated as line breaks.
var lineSplitter = regexp.MustCompile(`\n|\\n`)

// ParseFields splits decoded text into a FieldMap. Lines are `Key: Value`
// pairs separated on the first ": "; blank or unparseable lines are skipped.
func ParseFields(text string) FieldMap {
	fields := make(FieldMap)

	for _, line := range lineSplitter.Split(text, -1) {
		if strings.TrimSpace(line) == "" {
			continue
		}

		key, value, found := strings.Cut(line, ": ")
		if !found {
			continue
		}

		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}

		fields[key] = strings.TrimSpace(value)
	}

	return fields
}

// BookingID returns the embedded booking ID, if any.
func (f FieldMap) BookingID() string {
	return f[KeyBookingID]
}

// Get returns the value for key and whether it is present and non-empty.
func (f FieldMap) Get(key string) (string, bool) {
	v, ok := f[key]
	return v, ok && v != ""
}
