package wire

import (
	"playground-checkin/internal/adaptor"
	"playground-checkin/pkg/middleware"
	"playground-checkin/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireScan(
	r chi.Router,
	scanHandler *adaptor.ScanHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== SCAN ROUTES ====================
	// POST /api/scan/image - decode an uploaded booking QR photo
	r.Post("/api/scan/image", scanHandler.ScanImage)

	// POST /api/scan/camera - run a camera scan session on this host
	r.Post("/api/scan/camera", scanHandler.ScanCamera)

	// GET /api/bookings/{id}/status - live status lookup pass-through
	r.Get("/api/bookings/{id}/status", scanHandler.BookingStatus)

	// ==================== BACK-OFFICE ROUTES ====================
	r.Route("/api/scan/history", func(r chi.Router) {
		// Require the operator key
		r.Use(middleware.OperatorKey(config.Operator.KeyHash, log))

		// GET /api/scan/history - audit listing, newest first
		r.Get("/", scanHandler.History)
	})
}
