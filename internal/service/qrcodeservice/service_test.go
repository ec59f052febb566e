package qrcodeservice_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"garagesale/internal/domain"
	apperror "garagesale/internal/errors"
	"garagesale/internal/pkg/logger"
	"garagesale/internal/pkg/storage"
	"garagesale/internal/service/qrcodeservice"
)

// MockProductRepository é uma implementação mock da interface ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) FindByQRToken(ctx context.Context, token string) (domain.Product, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) SetQRCode(ctx context.Context, id uuid.UUID, data, imageURL string) error {
	args := m.Called(ctx, id, data, imageURL)
	return args.Error(0)
}

func (m *MockProductRepository) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockScanRepository é uma implementação mock da interface ScanRepository.
type MockScanRepository struct {
	mock.Mock
}

func (m *MockScanRepository) Insert(ctx context.Context, scan domain.QRScan) error {
	args := m.Called(ctx, scan)
	return args.Error(0)
}

func (m *MockScanRepository) CountForProduct(ctx context.Context, productID uuid.UUID) (int, error) {
	args := m.Called(ctx, productID)
	return args.Int(0), args.Error(1)
}

// MockProfileRepository é uma implementação mock da interface ProfileRepository.
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) FindProfileByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}

func newQRService(products *MockProductRepository, scans *MockScanRepository, profiles *MockProfileRepository) (*qrcodeservice.Service, *storage.Memory) {
	log := logger.NewLogger("debug")
	store := storage.NewMemory("https://cdn.test/")
	return qrcodeservice.NewService(products, scans, profiles, store, log, "https://bazar.test/"), store
}

func produtoComVendedor(sellerID uuid.UUID) domain.Product {
	price, _ := domain.NewMoneyFromString("45.90", domain.CurrencyBRL)
	return domain.Product{
		ID:          uuid.New(),
		SellerID:    sellerID,
		Name:        "Abajur vintage",
		Description: "Abajur de cabeceira funcionando perfeitamente.",
		Price:       price,
		Category:    domain.CategoryFurniture,
		Status:      domain.StatusAvailable,
		Quantity:    1,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
}

// TestGenerate_Sucesso testa a geração: PNG no storage, token persistido e
// URL de scan apontando para a API.
func TestGenerate_Sucesso(t *testing.T) {
	products := new(MockProductRepository)
	scans := new(MockScanRepository)
	profiles := new(MockProfileRepository)
	svc, store := newQRService(products, scans, profiles)

	sellerID := uuid.New()
	product := produtoComVendedor(sellerID)
	products.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	products.On("SetQRCode", mock.Anything, product.ID, mock.Anything, mock.Anything).Return(nil)

	result, err := svc.Generate(context.Background(), domain.Actor{ID: sellerID, Role: domain.RoleSeller}, product.ID)

	assert.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}$`), result.Token)
	assert.Equal(t, "https://bazar.test/api/v1/qr/scan/"+result.Token, result.ScanURL)
	assert.True(t, store.Has("qrcodes/"+product.ID.String()+".png"))
	products.AssertExpectations(t)
}

// TestGenerate_SoDono testa que QR code de produto alheio é proibido.
func TestGenerate_SoDono(t *testing.T) {
	products := new(MockProductRepository)
	scans := new(MockScanRepository)
	profiles := new(MockProfileRepository)
	svc, _ := newQRService(products, scans, profiles)

	product := produtoComVendedor(uuid.New())
	products.On("FindByID", mock.Anything, product.ID).Return(product, nil)

	_, err := svc.Generate(context.Background(), domain.Actor{ID: uuid.New(), Role: domain.RoleSeller}, product.ID)

	appErr, ok := err.(apperror.AppError)
	assert.True(t, ok)
	assert.Equal(t, 403, appErr.HTTPStatus())
	products.AssertNotCalled(t, "SetQRCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestScan_RetornaContatoDoVendedor testa a leitura com perfil completo.
func TestScan_RetornaContatoDoVendedor(t *testing.T) {
	products := new(MockProductRepository)
	scans := new(MockScanRepository)
	profiles := new(MockProfileRepository)
	svc, _ := newQRService(products, scans, profiles)

	sellerID := uuid.New()
	product := produtoComVendedor(sellerID)
	seller := domain.User{
		ID:        sellerID,
		Name:      "Ana Souza",
		Phone:     "11987654321",
		StoreName: "Bazar da Ana",
		Role:      domain.RoleSeller,
		IsActive:  true,
	}

	products.On("FindByQRToken", mock.Anything, "token123").Return(product, nil)
	products.On("IncrementViewCount", mock.Anything, product.ID).Return(nil)
	scans.On("Insert", mock.Anything, mock.MatchedBy(func(s domain.QRScan) bool {
		return s.ProductID == product.ID && s.ScannerID == nil
	})).Return(nil)
	profiles.On("FindProfileByID", mock.Anything, sellerID).Return(seller, nil)

	result, err := svc.Scan(context.Background(), "token123", nil, "Mozilla/5.0")

	assert.NoError(t, err)
	assert.Equal(t, product.ID, result.Product.ID)
	assert.Equal(t, "45.90", result.PriceAmount)
	assert.Equal(t, domain.CurrencyBRL, result.Currency)
	assert.Equal(t, "Ana Souza", result.SellerName)
	assert.Equal(t, "Bazar da Ana", result.StoreName)
	assert.Equal(t, "(11) 98765-4321", result.SellerPhone)
	assert.Equal(t, "https://wa.me/5511987654321", result.WhatsAppLink)
	scans.AssertExpectations(t)
}

// TestScan_FalhaNoLogNaoBloqueia testa que o registro da leitura é best-effort.
func TestScan_FalhaNoLogNaoBloqueia(t *testing.T) {
	products := new(MockProductRepository)
	scans := new(MockScanRepository)
	profiles := new(MockProfileRepository)
	svc, _ := newQRService(products, scans, profiles)

	sellerID := uuid.New()
	product := produtoComVendedor(sellerID)
	products.On("FindByQRToken", mock.Anything, "token123").Return(product, nil)
	products.On("IncrementViewCount", mock.Anything, product.ID).Return(assert.AnError)
	scans.On("Insert", mock.Anything, mock.Anything).Return(assert.AnError)
	profiles.On("FindProfileByID", mock.Anything, sellerID).Return(domain.User{}, apperror.NewNotFoundError("perfil"))

	result, err := svc.Scan(context.Background(), "token123", nil, "")

	// Nem o log, nem o contador, nem o perfil ausente derrubam a resposta.
	assert.NoError(t, err)
	assert.Equal(t, product.ID, result.Product.ID)
	assert.Empty(t, result.SellerName)
}

// TestScan_ContabilizaVisualizacao testa que a leitura do QR code conta como
// visualização do produto.
func TestScan_ContabilizaVisualizacao(t *testing.T) {
	products := new(MockProductRepository)
	scans := new(MockScanRepository)
	profiles := new(MockProfileRepository)
	svc, _ := newQRService(products, scans, profiles)

	sellerID := uuid.New()
	product := produtoComVendedor(sellerID)
	product.ViewCount = 7

	products.On("FindByQRToken", mock.Anything, "token123").Return(product, nil)
	products.On("IncrementViewCount", mock.Anything, product.ID).Return(nil)
	scans.On("Insert", mock.Anything, mock.Anything).Return(nil)
	profiles.On("FindProfileByID", mock.Anything, sellerID).Return(domain.User{ID: sellerID, Name: "Ana Souza"}, nil)

	result, err := svc.Scan(context.Background(), "token123", nil, "")

	assert.NoError(t, err)
	assert.Equal(t, 8, result.Product.ViewCount)
	products.AssertCalled(t, "IncrementViewCount", mock.Anything, product.ID)
}

// TestScan_TokenDesconhecido testa a leitura de token inexistente.
func TestScan_TokenDesconhecido(t *testing.T) {
	products := new(MockProductRepository)
	scans := new(MockScanRepository)
	profiles := new(MockProfileRepository)
	svc, _ := newQRService(products, scans, profiles)

	products.On("FindByQRToken", mock.Anything, "nada").Return(domain.Product{}, apperror.NewNotFoundError("produto"))

	_, err := svc.Scan(context.Background(), "nada", nil, "")

	appErr, ok := err.(apperror.AppError)
	assert.True(t, ok)
	assert.Equal(t, 404, appErr.HTTPStatus())
	scans.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

// TestStats_SoDono testa a visibilidade das estatísticas de leitura.
func TestStats_SoDono(t *testing.T) {
	products := new(MockProductRepository)
	scans := new(MockScanRepository)
	profiles := new(MockProfileRepository)
	svc, _ := newQRService(products, scans, profiles)

	sellerID := uuid.New()
	product := produtoComVendedor(sellerID)
	products.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	scans.On("CountForProduct", mock.Anything, product.ID).Return(12, nil)

	count, err := svc.Stats(context.Background(), domain.Actor{ID: sellerID, Role: domain.RoleSeller}, product.ID)
	assert.NoError(t, err)
	assert.Equal(t, 12, count)

	_, err = svc.Stats(context.Background(), domain.Actor{ID: uuid.New(), Role: domain.RoleBuyer}, product.ID)
	appErr, ok := err.(apperror.AppError)
	assert.True(t, ok)
	assert.Equal(t, 403, appErr.HTTPStatus())
}
