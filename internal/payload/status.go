package payload

import (
	"strings"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
	StatusExpired   Status = "expired"
	StatusUnknown   Status = "unknown"
)

// StatusSource records which check decided the final status.
type StatusSource string

const (
	SourceEmbedded    StatusSource = "embedded"
	SourceLocalExpiry StatusSource = "local_expiry"
	SourceServer      StatusSource = "server"
)

// ScanResult is the display-ready outcome of post-processing one decoded
// payload. Fields hold every parsed line; the named accessors below expose
// the recognized ones.
type ScanResult struct {
	Fields       FieldMap
	Status       Status
	RawStatus    string
	StatusSource StatusSource
}

func (r *ScanResult) BookingID() string  { return r.Fields[KeyBookingID] }
func (r *ScanResult) Playground() string { return r.Fields[KeyPlayground] }
func (r *ScanResult) Date() string       { return r.Fields[KeyDate] }
func (r *ScanResult) Time() string       { return r.Fields[KeyTime] }
func (r *ScanResult) Price() string      { return r.Fields[KeyPrice] }
func (r *ScanResult) User() string       { return r.Fields[KeyUser] }

// ParseStatus maps a raw status string onto the status enum. Unrecognized
// values (including empty) come back as unknown.
func ParseStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending":
		return StatusPending
	case "confirmed":
		return StatusConfirmed
	case "completed":
		return StatusCompleted
	case "canceled", "cancelled":
		return StatusCanceled
	case "expired":
		return StatusExpired
	default:
		return StatusUnknown
	}
}

// Date layouts the booking backend is known to emit. The original payloads
// carry dates like "12 Jan 2025" with times like "18:00".
var endTimeLayouts = []string{
	"2 Jan 2006 15:04",
	"02 Jan 2006 15:04",
	"Jan 2, 2006 15:04",
	"2006-01-02 15:04",
	"02/01/2006 15:04",
}

// BookingEnd computes the booking's end timestamp from the Date and Time
// fields. Time is a "<start> - <end>" range; the date and the end clock time
// are concatenated and parsed. Returns false when either field is missing or
// unparseable.
func BookingEnd(fields FieldMap) (time.Time, bool) {
	dateStr, ok := fields.Get(KeyDate)
	if !ok {
		return time.Time{}, false
	}
	timeStr, ok := fields.Get(KeyTime)
	if !ok {
		return time.Time{}, false
	}

	parts := strings.Split(timeStr, " - ")
	if len(parts) != 2 {
		return time.Time{}, false
	}
	endClock := strings.TrimSpace(parts[1])

	candidate := dateStr + " " + endClock
	for _, layout := range endTimeLayouts {
		if end, err := time.ParseInLocation(layout, candidate, time.Local); err == nil {
			return end, true
		}
	}

	return time.Time{}, false
}

// Resolve builds a ScanResult from parsed fields. The local expiry check
// overrides the embedded status whenever the booking end is strictly before
// now; a later server enrichment (ApplyServerStatus) overrides both.
func Resolve(fields FieldMap, now time.Time) *ScanResult {
	raw := fields[KeyStatus]
	result := &ScanResult{
		Fields:       fields,
		Status:       ParseStatus(raw),
		RawStatus:    raw,
		StatusSource: SourceEmbedded,
	}

	if end, ok := BookingEnd(fields); ok && end.Before(now) {
		result.Status = StatusExpired
		result.RawStatus = string(StatusExpired)
		result.StatusSource = SourceLocalExpiry
	}

	return result
}

// ApplyServerStatus overrides the resolved status with the authoritative
// value from the booking service. Empty server values are ignored.
func (r *ScanResult) ApplyServerStatus(serverStatus string) {
	if strings.TrimSpace(serverStatus) == "" {
		return
	}
	r.Status = ParseStatus(serverStatus)
	r.RawStatus = serverStatus
	r.StatusSource = SourceServer
}

// DisplayText re-serializes the result into the newline `Key: Value` form
// shown to operators, recognized fields first, then the final status.
func (r *ScanResult) DisplayText() string {
	var b strings.Builder
	for _, key := range DisplayKeys {
		if v, ok := r.Fields.Get(key); ok {
			b.WriteString(key)
			b.WriteString(": ")
			b.WriteString(v)
			b.WriteString("\n")
		}
	}
	b.WriteString(KeyStatus)
	b.WriteString(": ")
	b.WriteString(r.RawStatus)
	return b.String()
}
