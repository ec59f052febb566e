package productservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"garagesale/internal/domain"
	apperror "garagesale/internal/errors"
	"garagesale/internal/pkg/logger"
	"garagesale/internal/pkg/storage"
)

// ProductRepository define o contrato de persistência de produtos.
type ProductRepository interface {
	Save(ctx context.Context, p domain.Product) (domain.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (domain.Product, error)
	FindAll(ctx context.Context, filter domain.ProductFilter) (domain.ProductPage, error)
	Search(ctx context.Context, query string, page, pageSize int) (domain.ProductPage, error)
	Update(ctx context.Context, p domain.Product) error
	SoftDelete(ctx context.Context, id uuid.UUID, imagePaths []string) error
	IncrementViewCount(ctx context.Context, id uuid.UUID) error
}

// ProfileRepository é o subconjunto de perfis usado para a política de venda.
type ProfileRepository interface {
	FindProfileByID(ctx context.Context, id uuid.UUID) (domain.User, error)
}

// Service implementa o catálogo de produtos do bazar.
type Service struct {
	repo     ProductRepository
	profiles ProfileRepository
	storage  storage.Storage
	bus      domain.EventPublisher
	log      logger.Logger
}

// NewService cria o serviço de produtos.
func NewService(repo ProductRepository, profiles ProfileRepository, store storage.Storage, bus domain.EventPublisher, log logger.Logger) *Service {
	return &Service{repo: repo, profiles: profiles, storage: store, bus: bus, log: log}
}

// ImageUpload é uma imagem enviada no cadastro/edição do produto.
type ImageUpload struct {
	Data        []byte
	ContentType string
}

// CreateInput agrupa os dados de criação de um produto.
type CreateInput struct {
	Name        string
	Description string
	Price       string
	Currency    string
	Category    string
	Quantity    int
	Images      []ImageUpload
}

// Create cadastra um produto. Só vendedores (ou admins) ativos anunciam.
func (s *Service) Create(ctx context.Context, actor domain.Actor, in CreateInput) (domain.Product, error) {
	seller, err := s.profiles.FindProfileByID(ctx, actor.ID)
	if err != nil {
		return domain.Product{}, err
	}
	if !seller.CanSell() {
		return domain.Product{}, apperror.NewForbiddenError("Apenas vendedores podem anunciar produtos. Promova sua conta primeiro.")
	}

	if in.Currency == "" {
		in.Currency = domain.CurrencyBRL
	}
	price, err := domain.NewMoneyFromString(in.Price, in.Currency)
	if err != nil {
		return domain.Product{}, apperror.NewValidationError(err.Error())
	}

	now := time.Now().UTC()
	product := domain.Product{
		ID:          uuid.New(),
		SellerID:    actor.ID,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       price,
		Category:    domain.ParseCategory(in.Category),
		Status:      domain.StatusAvailable,
		Quantity:    in.Quantity,
		Images:      []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if product.Quantity == 0 {
		product.Quantity = 1
	}

	urls, err := s.uploadImages(ctx, product.ID, in.Images)
	if err != nil {
		return domain.Product{}, err
	}
	product.Images = urls

	if err := product.Validate(); err != nil {
		return domain.Product{}, apperror.NewValidationError(err.Error())
	}

	saved, err := s.repo.Save(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	s.log.Info("Produto anunciado", map[string]interface{}{
		"product_id": saved.ID.String(),
		"seller_id":  actor.ID.String(),
	})
	s.bus.Publish(domain.Event{Name: "ProductCreated", EntityID: saved.ID, OccurredAt: now})
	return saved, nil
}

func (s *Service) uploadImages(ctx context.Context, productID uuid.UUID, images []ImageUpload) ([]string, error) {
	if len(images) > 5 {
		return nil, apperror.NewValidationError("Produto não pode ter mais de 5 imagens.")
	}

	urls := make([]string, 0, len(images))
	for i, img := range images {
		path := fmt.Sprintf("products/%s/%d%s", productID, i, extensionFor(img.ContentType))
		url, err := s.storage.Upload(ctx, path, img.ContentType, img.Data)
		if err != nil {
			return nil, apperror.NewInternalError("falha ao enviar imagem do produto", err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

// GetByID carrega o produto e contabiliza a visualização. A contagem é um
// efeito colateral de leitura: falha nela não derruba a resposta.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (domain.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	if err := s.repo.IncrementViewCount(ctx, id); err != nil {
		s.log.Warn("Falha ao contabilizar visualização", map[string]interface{}{
			"product_id": id.String(),
			"error":      err.Error(),
		})
	} else {
		product.IncrementViewCount()
	}
	return product, nil
}

// List retorna a vitrine pública com filtros e paginação.
func (s *Service) List(ctx context.Context, filter domain.ProductFilter) (domain.ProductPage, error) {
	normalizeFilter(&filter)
	filter.SellerID = nil
	return s.repo.FindAll(ctx, filter)
}

// ListMine retorna os produtos do vendedor autenticado, em qualquer status.
func (s *Service) ListMine(ctx context.Context, actor domain.Actor, filter domain.ProductFilter) (domain.ProductPage, error) {
	normalizeFilter(&filter)
	filter.SellerID = &actor.ID
	return s.repo.FindAll(ctx, filter)
}

// Search busca produtos disponíveis por termo, com ranking por relevância.
func (s *Service) Search(ctx context.Context, query string, page, pageSize int) (domain.ProductPage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.ProductPage{}, apperror.NewValidationError("Informe um termo de busca.")
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.repo.Search(ctx, query, page, pageSize)
}

func normalizeFilter(f *domain.ProductFilter) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 20
	}
}

// UpdateInput agrupa os campos editáveis de um produto.
type UpdateInput struct {
	Name        string
	Description string
	Price       string
	Currency    string
	Category    string
	Quantity    int
	Images      []ImageUpload
}

// Update edita um produto do próprio vendedor (ou por admin).
func (s *Service) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, in UpdateInput) (domain.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if !actor.CanMutate(product.SellerID) {
		return domain.Product{}, apperror.NewForbiddenError("Você só pode editar os seus próprios produtos.")
	}

	var price *domain.Money
	if in.Price != "" {
		currency := in.Currency
		if currency == "" {
			currency = product.Price.Currency()
		}
		p, err := domain.NewMoneyFromString(in.Price, currency)
		if err != nil {
			return domain.Product{}, apperror.NewValidationError(err.Error())
		}
		price = &p
	}

	var category domain.ProductCategory
	if in.Category != "" {
		category = domain.ParseCategory(in.Category)
	}

	var images []string
	if len(in.Images) > 0 {
		images, err = s.uploadImages(ctx, product.ID, in.Images)
		if err != nil {
			return domain.Product{}, err
		}
	}

	if err := product.UpdateDetails(in.Name, in.Description, price, category, in.Quantity, images); err != nil {
		return domain.Product{}, apperror.NewConflictError(err.Error())
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return domain.Product{}, err
	}

	s.publish(product.PullEvents())
	return product, nil
}

// ApplyDiscount aplica um desconto percentual ao preço do produto.
func (s *Service) ApplyDiscount(ctx context.Context, actor domain.Actor, id uuid.UUID, percentage decimal.Decimal) (domain.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if !actor.CanMutate(product.SellerID) {
		return domain.Product{}, apperror.NewForbiddenError("Você só pode alterar o preço dos seus próprios produtos.")
	}

	if err := product.ApplyDiscount(percentage); err != nil {
		return domain.Product{}, apperror.NewValidationError(err.Error())
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return domain.Product{}, err
	}

	s.publish(product.PullEvents())
	return product, nil
}

// Delete remove (soft delete) um produto do próprio vendedor. As imagens vão
// para a fila de limpeza do storage na mesma transação.
func (s *Service) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanMutate(product.SellerID) {
		return apperror.NewForbiddenError("Você só pode remover os seus próprios produtos.")
	}
	if product.Status == domain.StatusSold {
		return apperror.NewConflictError("Produtos vendidos fazem parte do histórico e não podem ser removidos.")
	}

	if err := s.repo.SoftDelete(ctx, id, s.objectPaths(product.Images)); err != nil {
		return err
	}

	s.log.Info("Produto removido", map[string]interface{}{
		"product_id": id.String(),
		"seller_id":  product.SellerID.String(),
	})
	s.bus.Publish(domain.Event{Name: "ProductDeleted", EntityID: id, OccurredAt: time.Now().UTC()})
	return nil
}

// objectPaths converte URLs públicas de volta em caminhos de objeto do
// storage. URLs fora do nosso storage são ignoradas.
func (s *Service) objectPaths(urls []string) []string {
	base := s.storage.PublicURL("")
	paths := []string{}
	for _, u := range urls {
		if strings.HasPrefix(u, base) {
			paths = append(paths, strings.TrimPrefix(u, base))
		}
	}
	return paths
}

func (s *Service) publish(events []domain.Event) {
	for _, e := range events {
		s.bus.Publish(e)
	}
}
