package domain

import (
	"time"

	"github.com/google/uuid"
)

// QRScan é uma entrada append-only do log de leituras de QR code.
// Serve apenas para analytics e nunca é mutada.
type QRScan struct {
	ID        uuid.UUID  `json:"id"`
	ProductID uuid.UUID  `json:"product_id"`
	ScannerID *uuid.UUID `json:"scanner_id,omitempty"` // identidade opcional de quem escaneou
	UserAgent string     `json:"user_agent,omitempty"`
	ScannedAt time.Time  `json:"scanned_at"`
}
