package adaptor

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"playground-checkin/internal/decode"
	"playground-checkin/internal/dto/request"
	"playground-checkin/internal/frame"
	"playground-checkin/internal/usecase"
	"playground-checkin/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxUploadBytes bounds uploaded scan photos.
const maxUploadBytes = 10 << 20

type ScanHandler struct {
	service usecase.ScanService
	log     *zap.Logger
}

func NewScanHandler(service usecase.ScanService, log *zap.Logger) *ScanHandler {
	return &ScanHandler{
		service: service,
		log:     log.With(zap.String("handler", "scan")),
	}
}

// ScanImage handles POST /api/scan/image (multipart upload)
func (h *ScanHandler) ScanImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		utils.ResponseBadRequest(w, "Invalid multipart request", nil)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		utils.ResponseBadRequest(w, "Image file is required", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		utils.ResponseBadRequest(w, "Failed to read the uploaded file", nil)
		return
	}

	req := &request.UploadScanRequest{
		OperatorNote: r.FormValue("operator_note"),
	}

	result, err := h.service.ScanImage(r.Context(), header.Filename, data, req)
	if err != nil {
		h.handleScanError(w, err)
		return
	}

	utils.ResponseSuccess(w, "success", result)
}

// ScanCamera handles POST /api/scan/camera
func (h *ScanHandler) ScanCamera(w http.ResponseWriter, r *http.Request) {
	req := &request.CameraScanRequest{}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			utils.ResponseBadRequest(w, "Invalid request body", nil)
			return
		}
	}

	result, err := h.service.ScanCamera(r.Context(), req)
	if err != nil {
		h.handleScanError(w, err)
		return
	}

	utils.ResponseSuccess(w, "success", result)
}

// History handles GET /api/scan/history (operator key required)
func (h *ScanHandler) History(w http.ResponseWriter, r *http.Request) {
	query := &request.HistoryQuery{
		Page:    utils.ParseInt(r.URL.Query().Get("page"), 1),
		PerPage: utils.ParseInt(r.URL.Query().Get("per_page"), 10),
	}

	history, err := h.service.History(r.Context(), query)
	if err != nil {
		if strings.Contains(err.Error(), "validation failed") {
			h.log.Warn("History validation failed", zap.Error(err))
			utils.ResponseBadRequest(w, err.Error(), nil)
			return
		}
		h.log.Error("Failed to list scan history", zap.Error(err))
		utils.ResponseInternalError(w, "Failed to list scan history")
		return
	}

	utils.ResponseSuccess(w, "success", history)
}

// BookingStatus handles GET /api/bookings/{id}/status
func (h *ScanHandler) BookingStatus(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "id")
	if bookingID == "" {
		utils.ResponseBadRequest(w, "Booking ID is required", nil)
		return
	}

	status, err := h.service.BookingStatus(r.Context(), bookingID)
	if err != nil {
		utils.ResponseBadGateway(w, "Booking status lookup failed")
		return
	}

	utils.ResponseSuccess(w, "success", status)
}

// handleScanError maps the scan error taxonomy onto user-facing responses.
// Only request mistakes, camera failures and invalid/unreadable uploads ever
// reach the client; everything else stayed inside the core.
func (h *ScanHandler) handleScanError(w http.ResponseWriter, err error) {
	var camErr *frame.CameraError
	switch {
	case strings.Contains(err.Error(), "validation failed"):
		h.log.Warn("Scan validation failed", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)
	case errors.As(err, &camErr):
		utils.ResponseJSON(w, http.StatusServiceUnavailable, false,
			cameraErrorMessage(camErr.Reason),
			nil, map[string]string{"reason": string(camErr.Reason)})
	case errors.Is(err, frame.ErrInvalidInput):
		utils.ResponseBadRequest(w, "Please select an image file.", nil)
	case errors.Is(err, decode.ErrNoCode):
		utils.ResponseUnprocessable(w, "No QR code found in the image. Please try a clearer image.")
	case errors.Is(err, usecase.ErrScanTimeout):
		utils.ResponseJSON(w, http.StatusRequestTimeout, false,
			"Scan timed out without finding a code.", nil, nil)
	default:
		h.log.Error("Scan failed", zap.Error(err))
		utils.ResponseInternalError(w, "Scan failed")
	}
}

// cameraErrorMessage mirrors the recovery guidance shown in the booking
// frontend for each acquisition failure class.
func cameraErrorMessage(reason frame.CameraReason) string {
	switch reason {
	case frame.ReasonPermissionDenied:
		return "Camera access denied. Please allow camera permissions and try again."
	case frame.ReasonNoDevice:
		return "No camera found on this device."
	case frame.ReasonUnsupported:
		return "Camera not supported on this device."
	case frame.ReasonBusy:
		return "Camera is already in use by another application."
	default:
		return "Camera error. Please retry or upload an image instead."
	}
}
