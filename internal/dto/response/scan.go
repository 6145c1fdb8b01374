package response

import (
	"time"

	"playground-checkin/internal/data/entity"
	"playground-checkin/internal/payload"
)

// ScanResponse is the rendering-ready result of one scan: every recognized
// field plus the final resolved status. Clients display it without further
// computation.
type ScanResponse struct {
	RecordID     string `json:"record_id,omitempty"`
	BookingID    string `json:"booking_id,omitempty"`
	Playground   string `json:"playground,omitempty"`
	Date         string `json:"date,omitempty"`
	Time         string `json:"time,omitempty"`
	Price        string `json:"price,omitempty"`
	User         string `json:"user,omitempty"`
	Status       string `json:"status"`
	StatusSource string `json:"status_source"`
	Strategy     string `json:"strategy,omitempty"`
	Source       string `json:"source"`
	DisplayText  string `json:"display_text"`
}

func ScanResultToResponse(result *payload.ScanResult, source entity.ScanSource, strategy string) *ScanResponse {
	return &ScanResponse{
		BookingID:    result.BookingID(),
		Playground:   result.Playground(),
		Date:         result.Date(),
		Time:         result.Time(),
		Price:        result.Price(),
		User:         result.User(),
		Status:       string(result.Status),
		StatusSource: string(result.StatusSource),
		Strategy:     strategy,
		Source:       string(source),
		DisplayText:  result.DisplayText(),
	}
}

// ScanRecordResponse is one row of the audit history.
type ScanRecordResponse struct {
	ID           string    `json:"id"`
	BookingID    string    `json:"booking_id"`
	Playground   string    `json:"playground"`
	BookingDate  string    `json:"booking_date"`
	BookingTime  string    `json:"booking_time"`
	Price        string    `json:"price"`
	Customer     string    `json:"customer"`
	Status       string    `json:"status"`
	StatusSource string    `json:"status_source"`
	Strategy     string    `json:"strategy"`
	Source       string    `json:"source"`
	OperatorNote string    `json:"operator_note,omitempty"`
	ScannedAt    time.Time `json:"scanned_at"`
}

func ScanRecordToResponse(record *entity.ScanRecord) ScanRecordResponse {
	return ScanRecordResponse{
		ID:           record.ID.String(),
		BookingID:    record.BookingID,
		Playground:   record.Playground,
		BookingDate:  record.BookingDate,
		BookingTime:  record.BookingTime,
		Price:        record.Price,
		Customer:     record.Customer,
		Status:       record.Status,
		StatusSource: record.StatusSource,
		Strategy:     record.Strategy,
		Source:       string(record.Source),
		OperatorNote: record.OperatorNote,
		ScannedAt:    record.CreatedAt,
	}
}

// BookingStatusResponse is the pass-through status lookup result.
type BookingStatusResponse struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}
