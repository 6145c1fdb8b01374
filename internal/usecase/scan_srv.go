package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"playground-checkin/internal/data/bookingapi"
	"playground-checkin/internal/data/entity"
	"playground-checkin/internal/data/repository"
	"playground-checkin/internal/decode"
	"playground-checkin/internal/dto/request"
	"playground-checkin/internal/dto/response"
	"playground-checkin/internal/frame"
	"playground-checkin/internal/payload"
	"playground-checkin/internal/scan"
	"playground-checkin/pkg/utils"

	"go.uber.org/zap"
)

// ErrScanTimeout means a camera session ran out of time without finding a
// code. Decode failures themselves are never errors; only the session
// deadline ends a camera scan empty-handed.
var ErrScanTimeout = errors.New("scan session timed out")

type ScanService interface {
	// ScanImage decodes an uploaded photo and post-processes the result.
	ScanImage(ctx context.Context, filename string, data []byte, req *request.UploadScanRequest) (*response.ScanResponse, error)

	// ScanCamera runs one camera scan session to completion.
	ScanCamera(ctx context.Context, req *request.CameraScanRequest) (*response.ScanResponse, error)

	// History lists recorded scans, newest first.
	History(ctx context.Context, query *request.HistoryQuery) (*response.PaginatedResponse[response.ScanRecordResponse], error)

	// BookingStatus is the pass-through live status lookup.
	BookingStatus(ctx context.Context, bookingID string) (*response.BookingStatusResponse, error)
}

type scanService struct {
	repo        *repository.Repository
	booking     *bookingapi.Client
	provider    frame.Provider
	uploadChain *decode.Chain
	cameraChain *decode.Chain
	cfg         *utils.Config
	log         *zap.Logger
	now         func() time.Time
}

func NewScanService(repo *repository.Repository, booking *bookingapi.Client, provider frame.Provider, cfg *utils.Config, log *zap.Logger) ScanService {
	return &scanService{
		repo:        repo,
		booking:     booking,
		provider:    provider,
		uploadChain: decode.NewUploadChain(log),
		cameraChain: decode.NewCameraChain(log, cfg.Scanner.PixelInterval),
		cfg:         cfg,
		log:         log.With(zap.String("service", "scan")),
		now:         time.Now,
	}
}

func (s *scanService) ScanImage(ctx context.Context, filename string, data []byte, req *request.UploadScanRequest) (*response.ScanResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Image scan validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	img, err := frame.DecodeUploadedImage(filename, data)
	if err != nil {
		return nil, err
	}

	result, err := s.uploadChain.Decode(img)
	if err != nil {
		// Terminal for this image; the operator picks a clearer one.
		return nil, err
	}

	return s.process(ctx, result, entity.ScanSourceUpload, req.OperatorNote)
}

func (s *scanService) ScanCamera(ctx context.Context, req *request.CameraScanRequest) (*response.ScanResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Camera scan validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	timeout := s.cfg.Scanner.SessionTimeout
	if req.TimeoutSeconds > 0 {
		timeout = time.Duration(req.TimeoutSeconds) * time.Second
	}
	sessionCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resultCh := make(chan string, 1)
	controller := scan.NewController(s.provider, s.cameraChain,
		scan.Config{ReadyTimeout: s.cfg.Scanner.ReadyTimeout},
		scan.Callbacks{OnScan: func(text string) {
			select {
			case resultCh <- text:
			default:
			}
		}},
		s.log,
	)
	defer controller.Stop()

	if err := controller.Start(sessionCtx); err != nil {
		return nil, err
	}

	select {
	case text := <-resultCh:
		result := &decode.Result{
			Text:     text,
			Strategy: controller.Session().ActiveStrategy,
		}
		return s.process(ctx, result, entity.ScanSourceCamera, req.OperatorNote)
	case <-sessionCtx.Done():
		return nil, ErrScanTimeout
	}
}

// process turns raw decoded text into the final scan outcome: parse, local
// expiry check, best-effort server enrichment, audit record.
func (s *scanService) process(ctx context.Context, decoded *decode.Result, source entity.ScanSource, note string) (*response.ScanResponse, error) {
	fields := payload.ParseFields(decoded.Text)
	result := payload.Resolve(fields, s.now())

	if bookingID := fields.BookingID(); bookingID != "" {
		token, _ := utils.GetTokenFromContext(ctx)
		serverStatus, err := s.booking.BookingStatus(ctx, bookingID, token)
		if err != nil {
			// Best-effort overlay; the locally computed status stands.
			s.log.Debug("status enrichment skipped",
				zap.String("booking_id", bookingID),
				zap.Error(err),
			)
		} else {
			result.ApplyServerStatus(serverStatus)
		}
	}

	resp := response.ScanResultToResponse(result, source, decoded.Strategy)

	record := s.buildRecord(result, decoded, source, note)
	if err := s.repo.Scan.Create(ctx, record); err != nil {
		// The check-in itself succeeded; losing one audit row is not
		// worth failing the scan over.
		s.log.Warn("scan record not persisted",
			zap.String("booking_id", record.BookingID),
			zap.Error(err),
		)
	} else {
		resp.RecordID = record.ID.String()
	}

	s.log.Info("Scan processed",
		zap.String("booking_id", record.BookingID),
		zap.String("status", string(result.Status)),
		zap.String("status_source", string(result.StatusSource)),
		zap.String("source", string(source)),
		zap.String("strategy", decoded.Strategy),
	)

	return resp, nil
}

func (s *scanService) buildRecord(result *payload.ScanResult, decoded *decode.Result, source entity.ScanSource, note string) *entity.ScanRecord {
	now := s.now()
	return &entity.ScanRecord{
		Base: entity.Base{
			ID:        entity.NewScanRecordID(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		BookingID:    result.BookingID(),
		Playground:   result.Playground(),
		BookingDate:  result.Date(),
		BookingTime:  result.Time(),
		Price:        result.Price(),
		Customer:     result.User(),
		Status:       string(result.Status),
		StatusSource: string(result.StatusSource),
		Strategy:     decoded.Strategy,
		Source:       source,
		RawText:      decoded.Text,
		OperatorNote: note,
	}
}

func (s *scanService) History(ctx context.Context, query *request.HistoryQuery) (*response.PaginatedResponse[response.ScanRecordResponse], error) {
	if errs := utils.ValidateStruct(query); len(errs) > 0 {
		s.log.Warn("History validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	records, err := s.repo.Scan.List(ctx, query.Limit(), query.Offset())
	if err != nil {
		return nil, fmt.Errorf("list scan history: %w", err)
	}

	total, err := s.repo.Scan.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count scan history: %w", err)
	}

	items := make([]response.ScanRecordResponse, len(records))
	for i, record := range records {
		items[i] = response.ScanRecordToResponse(record)
	}

	return response.NewPaginatedResponse(items, query.Page, query.Limit(), total), nil
}

func (s *scanService) BookingStatus(ctx context.Context, bookingID string) (*response.BookingStatusResponse, error) {
	token, _ := utils.GetTokenFromContext(ctx)

	status, err := s.booking.BookingStatus(ctx, bookingID, token)
	if err != nil {
		return nil, err
	}

	return &response.BookingStatusResponse{
		BookingID: bookingID,
		Status:    status,
	}, nil
}
