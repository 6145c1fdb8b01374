package usecase

import (
	"playground-checkin/internal/data/bookingapi"
	"playground-checkin/internal/data/repository"
	"playground-checkin/internal/frame"
	"playground-checkin/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Scan ScanService
}

func NewService(repo *repository.Repository, config *utils.Config, log *zap.Logger) *Service {
	booking := bookingapi.NewClient(config.BookingAPI.BaseURL, config.BookingAPI.Timeout, log)

	// Kiosk hosts without capture hardware scan from a directory of stills.
	provider := frame.NewStillProvider(config.Scanner.StillDir, config.Scanner.StillInterval)

	return &Service{
		Scan: NewScanService(repo, booking, provider, config, log),
	}
}
