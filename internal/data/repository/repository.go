package repository

import (
	"playground-checkin/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	Scan ScanRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		Scan: NewScanRepository(db, log),
	}
}
