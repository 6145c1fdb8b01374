package request

// UploadScanRequest carries the non-file fields of a multipart image scan.
type UploadScanRequest struct {
	OperatorNote string `json:"operator_note" validate:"omitempty,max=500"`
}

// CameraScanRequest starts one camera scan session on the kiosk host.
// TimeoutSeconds bounds how long the session may keep scanning before the
// request gives up.
type CameraScanRequest struct {
	TimeoutSeconds int    `json:"timeout_seconds" validate:"omitempty,min=1,max=120"`
	OperatorNote   string `json:"operator_note" validate:"omitempty,max=500"`
}

// HistoryQuery paginates the scan history listing.
type HistoryQuery struct {
	Page    int `json:"page" validate:"min=1"`
	PerPage int `json:"per_page" validate:"min=1,max=100"`
}

func (q HistoryQuery) Limit() int {
	if q.PerPage < 1 {
		return 10
	}
	if q.PerPage > 100 {
		return 100
	}
	return q.PerPage
}

func (q HistoryQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit()
}
