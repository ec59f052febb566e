package saleservice

import (
	"context"

	"github.com/google/uuid"

	"garagesale/internal/domain"
	apperror "garagesale/internal/errors"
	"garagesale/internal/pkg/logger"
)

// SaleRepository define o contrato de persistência de vendas.
type SaleRepository interface {
	CreatePurchase(ctx context.Context, productID, buyerID uuid.UUID, buyerNotes string) (domain.Sale, error)
	FindByID(ctx context.Context, id uuid.UUID) (domain.Sale, error)
	FindForUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]domain.Sale, error)
	UpdateStatus(ctx context.Context, s domain.Sale, releaseProduct bool) error
}

// ProfileRepository é o subconjunto de perfis usado para a política de compra.
type ProfileRepository interface {
	FindProfileByID(ctx context.Context, id uuid.UUID) (domain.User, error)
}

// ProductCache derruba a entrada de cache de um produto. Compra e cancelamento
// mudam o status do produto no banco; sem a invalidação, a leitura por ID
// serviria o status antigo até o TTL expirar.
type ProductCache interface {
	Invalidate(ctx context.Context, id uuid.UUID)
}

// Service implementa o fluxo de compra e o ciclo de vida das vendas.
type Service struct {
	repo     SaleRepository
	profiles ProfileRepository
	products ProductCache
	bus      domain.EventPublisher
	log      logger.Logger
}

// NewService cria o serviço de vendas.
func NewService(repo SaleRepository, profiles ProfileRepository, products ProductCache, bus domain.EventPublisher, log logger.Logger) *Service {
	return &Service{repo: repo, profiles: profiles, products: products, bus: bus, log: log}
}

// Purchase executa a compra de um produto disponível. A disputa entre dois
// compradores é resolvida no banco: o perdedor recebe ConflictError.
func (s *Service) Purchase(ctx context.Context, actor domain.Actor, productID uuid.UUID, buyerNotes string) (domain.Sale, error) {
	buyer, err := s.profiles.FindProfileByID(ctx, actor.ID)
	if err != nil {
		return domain.Sale{}, err
	}
	if !buyer.CanBuy() {
		return domain.Sale{}, apperror.NewForbiddenError("Conta desativada não pode comprar.")
	}

	sale, err := s.repo.CreatePurchase(ctx, productID, actor.ID, buyerNotes)
	if err != nil {
		return domain.Sale{}, err
	}
	s.products.Invalidate(ctx, productID)

	s.log.Info("Compra concluída", map[string]interface{}{
		"sale_id":    sale.ID.String(),
		"product_id": productID.String(),
		"buyer_id":   actor.ID.String(),
	})
	s.bus.Publish(domain.Event{
		Name:       "ProductSold",
		EntityID:   productID,
		OccurredAt: sale.CreatedAt,
		Payload: map[string]interface{}{
			"sale_id":  sale.ID.String(),
			"buyer_id": actor.ID.String(),
			"price":    sale.Price.Amount().StringFixed(2),
		},
	})
	return sale, nil
}

// GetByID carrega uma venda. Só comprador, vendedor ou admin podem ver.
func (s *Service) GetByID(ctx context.Context, actor domain.Actor, id uuid.UUID) (domain.Sale, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Sale{}, err
	}
	if !s.canView(actor, sale) {
		return domain.Sale{}, apperror.NewForbiddenError("Você não participa desta venda.")
	}
	return sale, nil
}

// ListForUser lista as vendas do próprio usuário (como comprador ou vendedor).
func (s *Service) ListForUser(ctx context.Context, actor domain.Actor, page, pageSize int) ([]domain.Sale, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.repo.FindForUser(ctx, actor.ID, page, pageSize)
}

// Complete confirma a entrega: só o vendedor (ou admin) conclui a venda.
func (s *Service) Complete(ctx context.Context, actor domain.Actor, id uuid.UUID, sellerNotes string) (domain.Sale, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Sale{}, err
	}
	if !actor.CanMutate(sale.SellerID) {
		return domain.Sale{}, apperror.NewForbiddenError("Apenas o vendedor pode concluir a venda.")
	}

	if err := sale.Complete(); err != nil {
		return domain.Sale{}, apperror.NewConflictError(err.Error())
	}
	if sellerNotes != "" {
		sale.SellerNotes = sellerNotes
	}

	if err := s.repo.UpdateStatus(ctx, sale, false); err != nil {
		return domain.Sale{}, err
	}
	s.publish(sale.PullEvents())
	return sale, nil
}

// Cancel cancela uma venda pendente. Comprador e vendedor podem cancelar;
// o produto volta à vitrine na mesma transação.
func (s *Service) Cancel(ctx context.Context, actor domain.Actor, id uuid.UUID) (domain.Sale, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Sale{}, err
	}
	if !s.canView(actor, sale) {
		return domain.Sale{}, apperror.NewForbiddenError("Você não participa desta venda.")
	}

	if err := sale.Cancel(); err != nil {
		return domain.Sale{}, apperror.NewConflictError(err.Error())
	}

	if err := s.repo.UpdateStatus(ctx, sale, true); err != nil {
		return domain.Sale{}, err
	}
	s.products.Invalidate(ctx, sale.ProductID)

	s.log.Info("Venda cancelada; produto devolvido à vitrine", map[string]interface{}{
		"sale_id":    sale.ID.String(),
		"product_id": sale.ProductID.String(),
	})
	s.publish(sale.PullEvents())
	return sale, nil
}

// Refund marca como reembolsada uma venda concluída. Só vendedor ou admin.
func (s *Service) Refund(ctx context.Context, actor domain.Actor, id uuid.UUID) (domain.Sale, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Sale{}, err
	}
	if !actor.CanMutate(sale.SellerID) {
		return domain.Sale{}, apperror.NewForbiddenError("Apenas o vendedor pode reembolsar a venda.")
	}

	if err := sale.Refund(); err != nil {
		return domain.Sale{}, apperror.NewConflictError(err.Error())
	}

	if err := s.repo.UpdateStatus(ctx, sale, false); err != nil {
		return domain.Sale{}, err
	}
	s.publish(sale.PullEvents())
	return sale, nil
}

func (s *Service) canView(actor domain.Actor, sale domain.Sale) bool {
	return actor.Owns(sale.BuyerID) || actor.Owns(sale.SellerID) || actor.IsAdmin()
}

func (s *Service) publish(events []domain.Event) {
	for _, e := range events {
		s.bus.Publish(e)
	}
}
