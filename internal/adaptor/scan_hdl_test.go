package adaptor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"playground-checkin/internal/decode"
	"playground-checkin/internal/dto/request"
	"playground-checkin/internal/dto/response"
	"playground-checkin/internal/frame"
	"playground-checkin/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeScanService struct {
	imageResp  *response.ScanResponse
	imageErr   error
	cameraResp *response.ScanResponse
	cameraErr  error
	statusResp *response.BookingStatusResponse
	statusErr  error
	historyErr error

	gotFilename string
	gotData     []byte
	gotNote     string
	gotCamera   *request.CameraScanRequest
	gotQuery    *request.HistoryQuery
	gotBooking  string
}

func (f *fakeScanService) ScanImage(ctx context.Context, filename string, data []byte, req *request.UploadScanRequest) (*response.ScanResponse, error) {
	f.gotFilename = filename
	f.gotData = data
	f.gotNote = req.OperatorNote
	return f.imageResp, f.imageErr
}

func (f *fakeScanService) ScanCamera(ctx context.Context, req *request.CameraScanRequest) (*response.ScanResponse, error) {
	f.gotCamera = req
	return f.cameraResp, f.cameraErr
}

func (f *fakeScanService) History(ctx context.Context, query *request.HistoryQuery) (*response.PaginatedResponse[response.ScanRecordResponse], error) {
	f.gotQuery = query
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return &response.PaginatedResponse[response.ScanRecordResponse]{}, nil
}

func (f *fakeScanService) BookingStatus(ctx context.Context, bookingID string) (*response.BookingStatusResponse, error) {
	f.gotBooking = bookingID
	return f.statusResp, f.statusErr
}

func newTestHandler(svc usecase.ScanService) *ScanHandler {
	return NewScanHandler(svc, zap.NewNop())
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func multipartUpload(t *testing.T, fieldName, filename string, data []byte, note string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(fieldName, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	if note != "" {
		require.NoError(t, writer.WriteField("operator_note", note))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/scan/image", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestScanImageHandler(t *testing.T) {
	svc := &fakeScanService{
		imageResp: &response.ScanResponse{BookingID: "64f8a2", Status: "confirmed"},
	}
	handler := newTestHandler(svc)

	rec := httptest.NewRecorder()
	handler.ScanImage(rec, multipartUpload(t, "image", "code.png", []byte("fake-image-bytes"), "gate 3"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "code.png", svc.gotFilename)
	assert.Equal(t, []byte("fake-image-bytes"), svc.gotData)
	assert.Equal(t, "gate 3", svc.gotNote)

	body := decodeEnvelope(t, rec)
	assert.Equal(t, true, body["status"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "64f8a2", data["booking_id"])
}

func TestScanImageHandlerMissingFile(t *testing.T) {
	handler := newTestHandler(&fakeScanService{})

	rec := httptest.NewRecorder()
	handler.ScanImage(rec, multipartUpload(t, "wrong_field", "code.png", []byte("x"), ""))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScanImageHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"invalid_input", frame.ErrInvalidInput, http.StatusBadRequest},
		{"validation", errors.New("validation failed: OperatorNote: must be at most 500 characters"), http.StatusBadRequest},
		{"no_code", decode.ErrNoCode, http.StatusUnprocessableEntity},
		{"timeout", usecase.ErrScanTimeout, http.StatusRequestTimeout},
		{"camera", frame.Unavailable(frame.ReasonPermissionDenied, nil), http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := newTestHandler(&fakeScanService{imageErr: tc.err})

			rec := httptest.NewRecorder()
			handler.ScanImage(rec, multipartUpload(t, "image", "code.png", []byte("x"), ""))

			assert.Equal(t, tc.wantCode, rec.Code)
		})
	}
}

func TestScanImageHandlerCameraErrorReason(t *testing.T) {
	handler := newTestHandler(&fakeScanService{
		imageErr: frame.Unavailable(frame.ReasonBusy, errors.New("held")),
	})

	rec := httptest.NewRecorder()
	handler.ScanImage(rec, multipartUpload(t, "image", "code.png", []byte("x"), ""))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Contains(t, body["message"], "already in use")
	errs := body["errors"].(map[string]any)
	assert.Equal(t, "busy", errs["reason"])
}

func TestScanCameraHandler(t *testing.T) {
	svc := &fakeScanService{
		cameraResp: &response.ScanResponse{BookingID: "64f8a2", Status: "confirmed"},
	}
	handler := newTestHandler(svc)

	reqBody := `{"timeout_seconds": 15, "operator_note": "side gate"}`
	req := httptest.NewRequest(http.MethodPost, "/api/scan/camera", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler.ScanCamera(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.gotCamera)
	assert.Equal(t, 15, svc.gotCamera.TimeoutSeconds)
	assert.Equal(t, "side gate", svc.gotCamera.OperatorNote)
}

func TestScanCameraHandlerEmptyBody(t *testing.T) {
	svc := &fakeScanService{cameraResp: &response.ScanResponse{Status: "confirmed"}}
	handler := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/scan/camera", nil)
	rec := httptest.NewRecorder()
	handler.ScanCamera(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.gotCamera)
	assert.Zero(t, svc.gotCamera.TimeoutSeconds)
}

func TestScanCameraHandlerBadJSON(t *testing.T) {
	handler := newTestHandler(&fakeScanService{})

	req := httptest.NewRequest(http.MethodPost, "/api/scan/camera", strings.NewReader("{nope"))
	rec := httptest.NewRecorder()
	handler.ScanCamera(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryHandlerQueryDefaults(t *testing.T) {
	svc := &fakeScanService{}
	handler := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/scan/history", nil)
	rec := httptest.NewRecorder()
	handler.History(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.gotQuery)
	assert.Equal(t, 1, svc.gotQuery.Page)
	assert.Equal(t, 10, svc.gotQuery.PerPage)
}

func TestHistoryHandlerQueryParams(t *testing.T) {
	svc := &fakeScanService{}
	handler := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/scan/history?page=3&per_page=25", nil)
	rec := httptest.NewRecorder()
	handler.History(rec, req)

	require.NotNil(t, svc.gotQuery)
	assert.Equal(t, 3, svc.gotQuery.Page)
	assert.Equal(t, 25, svc.gotQuery.PerPage)
}

func TestHistoryHandlerValidationError(t *testing.T) {
	svc := &fakeScanService{
		historyErr: errors.New("validation failed: PerPage: must be at most 100"),
	}
	handler := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/scan/history?page=1&per_page=500", nil)
	rec := httptest.NewRecorder()
	handler.History(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Contains(t, body["message"], "validation failed")
}

func TestHistoryHandlerServiceError(t *testing.T) {
	svc := &fakeScanService{historyErr: errors.New("list scan history: db down")}
	handler := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/scan/history", nil)
	rec := httptest.NewRecorder()
	handler.History(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestBookingStatusHandler(t *testing.T) {
	svc := &fakeScanService{
		statusResp: &response.BookingStatusResponse{BookingID: "64f8a2", Status: "confirmed"},
	}
	handler := newTestHandler(svc)

	r := chi.NewRouter()
	r.Get("/api/bookings/{id}/status", handler.BookingStatus)

	req := httptest.NewRequest(http.MethodGet, "/api/bookings/64f8a2/status", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "64f8a2", svc.gotBooking)
}

func TestBookingStatusHandlerBackendFailure(t *testing.T) {
	svc := &fakeScanService{statusErr: errors.New("unreachable")}
	handler := newTestHandler(svc)

	r := chi.NewRouter()
	r.Get("/api/bookings/{id}/status", handler.BookingStatus)

	req := httptest.NewRequest(http.MethodGet, "/api/bookings/64f8a2/status", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
