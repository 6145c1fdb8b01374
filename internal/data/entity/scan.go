package entity

import (
	"github.com/google/uuid"
)

type ScanSource string

const (
	ScanSourceCamera ScanSource = "camera"
	ScanSourceUpload ScanSource = "upload"
)

// ScanRecord is one successful check-in scan, kept for audit. The parsed
// booking fields are snapshotted as they were at scan time; RawText keeps
// the full decoded payload.
type ScanRecord struct {
	Base
	BookingID    string     `db:"booking_id"`
	Playground   string     `db:"playground"`
	BookingDate  string     `db:"booking_date"`
	BookingTime  string     `db:"booking_time"`
	Price        string     `db:"price"`
	Customer     string     `db:"customer"`
	Status       string     `db:"status"`
	StatusSource string     `db:"status_source"`
	Strategy     string     `db:"strategy"`
	Source       ScanSource `db:"source"`
	RawText      string     `db:"raw_text"`
	OperatorNote string     `db:"operator_note"`
}

// NewScanRecordID generates the record's primary key.
func NewScanRecordID() uuid.UUID {
	return uuid.New()
}
