package adaptor

import (
	"playground-checkin/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Scan *ScanHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Scan: NewScanHandler(service.Scan, log),
	}
}
