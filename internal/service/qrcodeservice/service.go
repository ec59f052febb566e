package qrcodeservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"garagesale/internal/domain"
	apperror "garagesale/internal/errors"
	"garagesale/internal/pkg/logger"
	"garagesale/internal/pkg/storage"
)

// ProductRepository é o subconjunto de produtos usado pelo fluxo de QR code.
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (domain.Product, error)
	FindByQRToken(ctx context.Context, token string) (domain.Product, error)
	SetQRCode(ctx context.Context, id uuid.UUID, data, imageURL string) error
	IncrementViewCount(ctx context.Context, id uuid.UUID) error
}

// ScanRepository persiste o log de leituras.
type ScanRepository interface {
	Insert(ctx context.Context, scan domain.QRScan) error
	CountForProduct(ctx context.Context, productID uuid.UUID) (int, error)
}

// ProfileRepository carrega o vendedor para montar o contato do scan.
type ProfileRepository interface {
	FindProfileByID(ctx context.Context, id uuid.UUID) (domain.User, error)
}

// Service gera QR codes de produto e processa leituras.
type Service struct {
	products ProductRepository
	scans    ScanRepository
	profiles ProfileRepository
	storage  storage.Storage
	log      logger.Logger
	baseURL  string // URL pública da API, prefixo das URLs de scan
}

// NewService cria o serviço de QR code.
func NewService(products ProductRepository, scans ScanRepository, profiles ProfileRepository, store storage.Storage, log logger.Logger, baseURL string) *Service {
	return &Service{
		products: products,
		scans:    scans,
		profiles: profiles,
		storage:  store,
		log:      log,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// GenerateResult é o retorno da geração de QR code.
type GenerateResult struct {
	Token    string `json:"qr_code_data"`
	ImageURL string `json:"qr_code_url"`
	ScanURL  string `json:"scan_url"`
}

// Generate cria (ou recria) o QR code de um produto do próprio vendedor.
// A imagem PNG é gravada no storage e o token fica persistido no produto.
func (s *Service) Generate(ctx context.Context, actor domain.Actor, productID uuid.UUID) (GenerateResult, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return GenerateResult{}, err
	}
	if !actor.CanMutate(product.SellerID) {
		return GenerateResult{}, apperror.NewForbiddenError("Você só pode gerar QR code dos seus próprios produtos.")
	}

	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	scanURL := fmt.Sprintf("%s/api/v1/qr/scan/%s", s.baseURL, token)

	png, err := qrcode.Encode(scanURL, qrcode.Medium, 256)
	if err != nil {
		return GenerateResult{}, apperror.NewInternalError("falha ao gerar imagem do QR code", err)
	}

	path := fmt.Sprintf("qrcodes/%s.png", productID)
	imageURL, err := s.storage.Upload(ctx, path, "image/png", png)
	if err != nil {
		return GenerateResult{}, apperror.NewInternalError("falha ao enviar QR code ao storage", err)
	}

	if err := s.products.SetQRCode(ctx, productID, token, imageURL); err != nil {
		return GenerateResult{}, err
	}

	s.log.Info("QR code gerado", map[string]interface{}{
		"product_id": productID.String(),
	})
	return GenerateResult{Token: token, ImageURL: imageURL, ScanURL: scanURL}, nil
}

// ScanResult é a resposta de uma leitura: o produto e o contato do vendedor.
type ScanResult struct {
	Product       domain.Product `json:"product"`
	PriceAmount   string         `json:"price"`
	Currency      string         `json:"currency"`
	SellerName    string         `json:"seller_name"`
	StoreName     string         `json:"store_name,omitempty"`
	SellerPhone   string         `json:"seller_phone,omitempty"`
	WhatsAppLink  string         `json:"whatsapp_link,omitempty"`
}

// Scan resolve um token de QR code, registra a leitura, contabiliza a
// visualização e devolve o produto com o contato do vendedor. A leitura é
// anônima por padrão; scannerID é preenchido quando há sessão.
func (s *Service) Scan(ctx context.Context, token string, scannerID *uuid.UUID, userAgent string) (ScanResult, error) {
	product, err := s.products.FindByQRToken(ctx, token)
	if err != nil {
		return ScanResult{}, err
	}

	// Scan conta como visualização do produto; falha não bloqueia a resposta.
	if err := s.products.IncrementViewCount(ctx, product.ID); err != nil {
		s.log.Warn("Falha ao contabilizar visualização", map[string]interface{}{
			"product_id": product.ID.String(),
			"error":      err.Error(),
		})
	} else {
		product.IncrementViewCount()
	}

	scan := domain.QRScan{
		ID:        uuid.New(),
		ProductID: product.ID,
		ScannerID: scannerID,
		UserAgent: userAgent,
		ScannedAt: time.Now().UTC(),
	}
	if err := s.scans.Insert(ctx, scan); err != nil {
		// O log de leituras é analytics: falha não bloqueia a resposta.
		s.log.Warn("Falha ao registrar leitura de QR code", map[string]interface{}{
			"product_id": product.ID.String(),
			"error":      err.Error(),
		})
	}

	result := ScanResult{
		Product:     product,
		PriceAmount: product.Price.Amount().StringFixed(2),
		Currency:    product.Price.Currency(),
	}

	seller, err := s.profiles.FindProfileByID(ctx, product.SellerID)
	if err != nil {
		// Vendedor sem perfil (provisionamento residual): responde só o produto.
		s.log.Warn("Vendedor sem perfil ao resolver scan", map[string]interface{}{
			"seller_id": product.SellerID.String(),
		})
		return result, nil
	}

	result.SellerName = seller.Name
	result.StoreName = seller.StoreName
	if phone, err := domain.NewPhone(seller.Phone); err == nil {
		result.SellerPhone = phone.Formatted()
		result.WhatsAppLink = phone.WhatsAppLink()
	}
	return result, nil
}

// Stats retorna quantas leituras o produto recebeu. Só o dono (ou admin) vê.
func (s *Service) Stats(ctx context.Context, actor domain.Actor, productID uuid.UUID) (int, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return 0, err
	}
	if !actor.CanMutate(product.SellerID) {
		return 0, apperror.NewForbiddenError("Você só pode ver as estatísticas dos seus próprios produtos.")
	}
	return s.scans.CountForProduct(ctx, productID)
}
