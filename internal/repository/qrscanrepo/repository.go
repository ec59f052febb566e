package qrscanrepo

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"garagesale/internal/domain"
	apperror "garagesale/internal/errors"
)

// Repository persiste o log append-only de leituras de QR code.
type Repository struct {
	db *sql.DB
}

// NewRepository cria o repositório de leituras de QR code.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert registra uma leitura.
func (r *Repository) Insert(ctx context.Context, scan domain.QRScan) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO qr_scans (id, product_id, scanner_id, user_agent, scanned_at)
		VALUES ($1, $2, $3, $4, $5)`,
		scan.ID, scan.ProductID, scan.ScannerID, scan.UserAgent, scan.ScannedAt,
	)
	if err != nil {
		return apperror.NewDBError("falha ao registrar leitura de QR code", err)
	}
	return nil
}

// CountForProduct retorna quantas leituras o produto recebeu.
func (r *Repository) CountForProduct(ctx context.Context, productID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT count(*) FROM qr_scans WHERE product_id = $1`, productID,
	).Scan(&count)
	if err != nil {
		return 0, apperror.NewDBError("falha ao contar leituras de QR code", err)
	}
	return count, nil
}
