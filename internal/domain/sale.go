package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SaleStatus é o status de uma venda.
type SaleStatus string

const (
	SalePending   SaleStatus = "pending"
	SaleCompleted SaleStatus = "completed"
	SaleCancelled SaleStatus = "cancelled"
	SaleRefunded  SaleStatus = "refunded"
)

// Sale é o registro imutável de uma transação: o preço é um snapshot
// do momento da compra e nunca muda depois.
// A venda referencia comprador e vendedor, mas não pertence a nenhum dos dois.
type Sale struct {
	ID          uuid.UUID  `json:"id"`
	ProductID   uuid.UUID  `json:"product_id"`
	BuyerID     uuid.UUID  `json:"buyer_id"`
	SellerID    uuid.UUID  `json:"seller_id"`
	Price       Money      `json:"-"`
	Status      SaleStatus `json:"status"`
	BuyerNotes  string     `json:"buyer_notes,omitempty"`
	SellerNotes string     `json:"seller_notes,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	eventRecorder
}

// Complete transiciona pending→completed.
func (s *Sale) Complete() error {
	if s.Status != SalePending {
		return fmt.Errorf("somente vendas pendentes podem ser concluídas (status: %s)", s.Status)
	}
	now := time.Now().UTC()
	s.Status = SaleCompleted
	s.CompletedAt = &now
	s.touch()
	s.record("SaleCompleted", s.ID, map[string]interface{}{"product_id": s.ProductID.String()})
	return nil
}

// Cancel transiciona pending→cancelled.
func (s *Sale) Cancel() error {
	if s.Status != SalePending {
		return fmt.Errorf("somente vendas pendentes podem ser canceladas (status: %s)", s.Status)
	}
	s.Status = SaleCancelled
	s.touch()
	s.record("SaleCancelled", s.ID, map[string]interface{}{"product_id": s.ProductID.String()})
	return nil
}

// Refund transiciona completed→refunded.
func (s *Sale) Refund() error {
	if s.Status != SaleCompleted {
		return fmt.Errorf("somente vendas concluídas podem ser reembolsadas (status: %s)", s.Status)
	}
	s.Status = SaleRefunded
	s.touch()
	s.record("SaleRefunded", s.ID, map[string]interface{}{"product_id": s.ProductID.String()})
	return nil
}

func (s *Sale) touch() {
	s.UpdatedAt = time.Now().UTC()
}
