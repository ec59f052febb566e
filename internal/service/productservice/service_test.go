package productservice_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"garagesale/internal/domain"
	apperror "garagesale/internal/errors"
	"garagesale/internal/pkg/eventbus"
	"garagesale/internal/pkg/logger"
	"garagesale/internal/pkg/storage"
	"garagesale/internal/service/productservice"
)

// MockProductRepository é uma implementação mock da interface ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Save(ctx context.Context, p domain.Product) (domain.Product, error) {
	args := m.Called(ctx, p)
	// Configurado com nil, o mock ecoa o produto recebido, como o repositório real.
	if args.Get(0) == nil {
		return p, args.Error(1)
	}
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter domain.ProductFilter) (domain.ProductPage, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(domain.ProductPage), args.Error(1)
}

func (m *MockProductRepository) Search(ctx context.Context, query string, page, pageSize int) (domain.ProductPage, error) {
	args := m.Called(ctx, query, page, pageSize)
	return args.Get(0).(domain.ProductPage), args.Error(1)
}

func (m *MockProductRepository) Update(ctx context.Context, p domain.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProductRepository) SoftDelete(ctx context.Context, id uuid.UUID, imagePaths []string) error {
	args := m.Called(ctx, id, imagePaths)
	return args.Error(0)
}

func (m *MockProductRepository) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockProfileRepository é uma implementação mock da interface ProfileRepository.
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) FindProfileByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}

const memBaseURL = "https://cdn.test/"

func newProductService(repo *MockProductRepository, profiles *MockProfileRepository) (*productservice.Service, *storage.Memory) {
	log := logger.NewLogger("debug")
	store := storage.NewMemory(memBaseURL)
	return productservice.NewService(repo, profiles, store, eventbus.NewBus(log), log), store
}

func perfil(id uuid.UUID, role domain.UserRole, active bool) domain.User {
	return domain.User{ID: id, Role: role, IsActive: active, Name: "Ana Souza"}
}

func produtoDe(sellerID uuid.UUID) domain.Product {
	price, _ := domain.NewMoneyFromString("150.00", domain.CurrencyBRL)
	return domain.Product{
		ID:          uuid.New(),
		SellerID:    sellerID,
		Name:        "Bicicleta aro 29",
		Description: "Bicicleta usada em bom estado, com marcas de uso.",
		Price:       price,
		Category:    domain.CategorySports,
		Status:      domain.StatusAvailable,
		Quantity:    1,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
}

// TestCreate_Sucesso testa o cadastro de produto por um vendedor, com upload
// das imagens para o storage.
func TestCreate_Sucesso(t *testing.T) {
	repo := new(MockProductRepository)
	profiles := new(MockProfileRepository)
	svc, store := newProductService(repo, profiles)

	sellerID := uuid.New()
	profiles.On("FindProfileByID", mock.Anything, sellerID).Return(perfil(sellerID, domain.RoleSeller, true), nil)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil, nil)

	product, err := svc.Create(context.Background(), domain.Actor{ID: sellerID, Role: domain.RoleSeller}, productservice.CreateInput{
		Name:        "Bicicleta aro 29",
		Description: "Bicicleta usada em bom estado, com marcas de uso.",
		Price:       "150.00",
		Category:    "sports",
		Images: []productservice.ImageUpload{
			{Data: []byte{0x89, 0x50}, ContentType: "image/png"},
		},
	})

	assert.NoError(t, err)
	assert.Equal(t, sellerID, product.SellerID)
	assert.Equal(t, domain.StatusAvailable, product.Status)
	assert.Equal(t, 1, product.Quantity)
	assert.Len(t, product.Images, 1)
	assert.True(t, store.Has("products/"+product.ID.String()+"/0.png"))
	repo.AssertExpectations(t)
}

// TestCreate_CompradorNaoAnuncia testa a política de venda no cadastro.
func TestCreate_CompradorNaoAnuncia(t *testing.T) {
	repo := new(MockProductRepository)
	profiles := new(MockProfileRepository)
	svc, _ := newProductService(repo, profiles)

	buyerID := uuid.New()
	profiles.On("FindProfileByID", mock.Anything, buyerID).Return(perfil(buyerID, domain.RoleBuyer, true), nil)

	_, err := svc.Create(context.Background(), domain.Actor{ID: buyerID, Role: domain.RoleBuyer}, productservice.CreateInput{
		Name:        "Qualquer",
		Description: "Não deve chegar ao repositório.",
		Price:       "10.00",
	})

	appErr, ok := err.(apperror.AppError)
	assert.True(t, ok)
	assert.Equal(t, 403, appErr.HTTPStatus())
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// TestCreate_PrecoInvalido testa a rejeição de preço não numérico ou negativo.
func TestCreate_PrecoInvalido(t *testing.T) {
	repo := new(MockProductRepository)
	profiles := new(MockProfileRepository)
	svc, _ := newProductService(repo, profiles)

	sellerID := uuid.New()
	profiles.On("FindProfileByID", mock.Anything, sellerID).Return(perfil(sellerID, domain.RoleSeller, true), nil)

	actor := domain.Actor{ID: sellerID, Role: domain.RoleSeller}

	_, err := svc.Create(context.Background(), actor, productservice.CreateInput{Name: "Produto", Description: "Descrição suficiente.", Price: "abc"})
	assert.Error(t, err)

	_, err = svc.Create(context.Background(), actor, productservice.CreateInput{Name: "Produto", Description: "Descrição suficiente.", Price: "-5.00"})
	assert.Error(t, err)
}

// TestGetByID_ContabilizaVisualizacao testa o incremento de views na leitura.
func TestGetByID_ContabilizaVisualizacao(t *testing.T) {
	repo := new(MockProductRepository)
	profiles := new(MockProfileRepository)
	svc, _ := newProductService(repo, profiles)

	product := produtoDe(uuid.New())
	product.ViewCount = 7
	repo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	repo.On("IncrementViewCount", mock.Anything, product.ID).Return(nil)

	got, err := svc.GetByID(context.Background(), product.ID)

	assert.NoError(t, err)
	assert.Equal(t, 8, got.ViewCount)
	repo.AssertExpectations(t)
}

// TestGetByID_FalhaNaContagemNaoDerruba testa que a contagem é best-effort.
func TestGetByID_FalhaNaContagemNaoDerruba(t *testing.T) {
	repo := new(MockProductRepository)
	profiles := new(MockProfileRepository)
	svc, _ := newProductService(repo, profiles)

	product := produtoDe(uuid.New())
	repo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	repo.On("IncrementViewCount", mock.Anything, product.ID).Return(assert.AnError)

	got, err := svc.GetByID(context.Background(), product.ID)

	assert.NoError(t, err)
	assert.Equal(t, product.ID, got.ID)
}

// TestList_ForcaVitrinePublica testa que List ignora SellerID do filtro.
func TestList_ForcaVitrinePublica(t *testing.T) {
	repo := new(MockProductRepository)
	profiles := new(MockProfileRepository)
	svc, _ := newProductService(repo, profiles)

	outro := uuid.New()
	repo.On("FindAll", mock.Anything, mock.MatchedBy(func(f domain.ProductFilter) bool {
		return f.SellerID == nil && f.Page == 1 && f.PageSize == 20
	})).Return(domain.ProductPage{}, nil)

	_, err := svc.List(context.Background(), domain.ProductFilter{SellerID: &outro})

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

// TestSearch_TermoVazio testa a rejeição de busca sem termo.
func TestSearch_TermoVazio(t *testing.T) {
	repo := new(MockProductRepository)
	profiles := new(MockProfileRepository)
	svc, _ := newProductService(repo, profiles)

	_, err := svc.Search(context.Background(), "   ", 1, 20)

	appErr, ok := err.(apperror.AppError)
	assert.True(t, ok)
	assert.Equal(t, 400, appErr.HTTPStatus())
	repo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestUpdate_SoDono testa que editar produto alheio é proibido.
func TestUpdate_SoDono(t *testing.T) {
	repo := new(MockProductRepository)
	profiles := new(MockProfileRepository)
	svc, _ := newProductService(repo, profiles)

	product := produtoDe(uuid.New())
	repo.On("FindByID", mock.Anything, product.ID).Return(product, nil)

	intruso := domain.Actor{ID: uuid.New(), Role: domain.RoleSeller}
	_, err := svc.Update(context.Background(), intruso, product.ID, productservice.UpdateInput{Name: "Outro nome de produto"})

	appErr, ok := err.(apperror.AppError)
	assert.True(t, ok)
	assert.Equal(t, 403, appErr.HTTPStatus())
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

// TestUpdate_ProdutoVendido testa que produto vendido não é editável.
func TestUpdate_ProdutoVendido(t *testing.T) {
	repo := new(MockProductRepository)
	profiles := new(MockProfileRepository)
	svc, _ := newProductService(repo, profiles)

	sellerID := uuid.New()
	product := produtoDe(sellerID)
	assert.NoError(t, product.MarkAsSold(uuid.New()))
	repo.On("FindByID", mock.Anything, product.ID).Return(product, nil)

	_, err := svc.Update(context.Background(), domain.Actor{ID: sellerID, Role: domain.RoleSeller}, product.ID, productservice.UpdateInput{Name: "Outro nome de produto"})

	appErr, ok := err.(apperror.AppError)
	assert.True(t, ok)
	assert.Equal(t, 409, appErr.HTTPStatus())
}

// TestApplyDiscount_Sucesso testa o desconto aplicado pelo dono.
func TestApplyDiscount_Sucesso(t *testing.T) {
	repo := new(MockProductRepository)
	profiles := new(MockProfileRepository)
	svc, _ := newProductService(repo, profiles)

	sellerID := uuid.New()
	product := produtoDe(sellerID)
	repo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	got, err := svc.ApplyDiscount(context.Background(), domain.Actor{ID: sellerID, Role: domain.RoleSeller}, product.ID, decimal.NewFromInt(20))

	assert.NoError(t, err)
	assert.Equal(t, "120.00", got.Price.Amount().StringFixed(2))
	repo.AssertExpectations(t)
}

// TestDelete_VendidoNaoRemove testa que vendas concluídas preservam o produto.
func TestDelete_VendidoNaoRemove(t *testing.T) {
	repo := new(MockProductRepository)
	profiles := new(MockProfileRepository)
	svc, _ := newProductService(repo, profiles)

	sellerID := uuid.New()
	product := produtoDe(sellerID)
	assert.NoError(t, product.MarkAsSold(uuid.New()))
	repo.On("FindByID", mock.Anything, product.ID).Return(product, nil)

	err := svc.Delete(context.Background(), domain.Actor{ID: sellerID, Role: domain.RoleSeller}, product.ID)

	appErr, ok := err.(apperror.AppError)
	assert.True(t, ok)
	assert.Equal(t, 409, appErr.HTTPStatus())
	repo.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything, mock.Anything)
}

// TestDelete_EnfileiraImagensDoStorage testa a conversão de URLs públicas em
// caminhos de objeto para a fila de limpeza.
func TestDelete_EnfileiraImagensDoStorage(t *testing.T) {
	repo := new(MockProductRepository)
	profiles := new(MockProfileRepository)
	svc, _ := newProductService(repo, profiles)

	sellerID := uuid.New()
	product := produtoDe(sellerID)
	product.Images = []string{
		memBaseURL + "products/" + product.ID.String() + "/0.jpg",
		"https://externo.example.com/fora.jpg",
	}
	repo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	repo.On("SoftDelete", mock.Anything, product.ID, []string{"products/" + product.ID.String() + "/0.jpg"}).Return(nil)

	err := svc.Delete(context.Background(), domain.Actor{ID: sellerID, Role: domain.RoleSeller}, product.ID)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}
