package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductStatus é o status do ciclo de vida de um produto.
type ProductStatus string

const (
	StatusAvailable ProductStatus = "available"
	StatusReserved  ProductStatus = "reserved"
	StatusSold      ProductStatus = "sold"
	StatusInactive  ProductStatus = "inactive"
)

// ProductCategory é o enum fechado de categorias.
type ProductCategory string

const (
	CategoryElectronics ProductCategory = "electronics"
	CategoryFurniture   ProductCategory = "furniture"
	CategoryBooks       ProductCategory = "books"
	CategoryToys        ProductCategory = "toys"
	CategoryClothing    ProductCategory = "clothing"
	CategorySports      ProductCategory = "sports"
	CategoryTools       ProductCategory = "tools"
	CategoryOther       ProductCategory = "other"
)

// ParseCategory normaliza uma string para uma categoria conhecida;
// valores desconhecidos caem em "other".
func ParseCategory(s string) ProductCategory {
	switch ProductCategory(strings.ToLower(s)) {
	case CategoryElectronics, CategoryFurniture, CategoryBooks, CategoryToys,
		CategoryClothing, CategorySports, CategoryTools, CategoryOther:
		return ProductCategory(strings.ToLower(s))
	}
	return CategoryOther
}

// Product representa um item anunciado no bazar.
// O seller_id é o dono imutável e a autoridade para mutações.
type Product struct {
	ID           uuid.UUID       `json:"id"`
	SellerID     uuid.UUID       `json:"seller_id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        Money           `json:"-"`
	Category     ProductCategory `json:"category"`
	Status       ProductStatus   `json:"status"`
	Quantity     int             `json:"quantity"`
	Images       []string        `json:"images"`
	QRCodeData   string          `json:"qr_code_data,omitempty"`
	QRCodeURL    string          `json:"qr_code_url,omitempty"`
	ViewCount    int             `json:"views"`
	ReservedBy   *uuid.UUID      `json:"reserved_by,omitempty"`
	ReservedAt   *time.Time      `json:"reserved_at,omitempty"`
	SoldAt       *time.Time      `json:"sold_at,omitempty"`
	DeletedAt    *time.Time      `json:"-"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`

	eventRecorder
}

// Validate verifica os invariantes do produto.
func (p *Product) Validate() error {
	if len(strings.TrimSpace(p.Name)) < 3 {
		return fmt.Errorf("nome do produto deve ter pelo menos 3 caracteres")
	}
	if len(p.Name) > 200 {
		return fmt.Errorf("nome do produto não pode exceder 200 caracteres")
	}
	if len(strings.TrimSpace(p.Description)) < 10 {
		return fmt.Errorf("descrição do produto deve ter pelo menos 10 caracteres")
	}
	if len(p.Description) > 2000 {
		return fmt.Errorf("descrição do produto não pode exceder 2000 caracteres")
	}
	if !p.Price.Amount().IsPositive() {
		return fmt.Errorf("preço do produto deve ser maior que zero")
	}
	if p.Quantity <= 0 {
		return fmt.Errorf("quantidade deve ser maior que zero")
	}
	if len(p.Images) > 5 {
		return fmt.Errorf("produto não pode ter mais de 5 imagens")
	}
	return nil
}

// IsAvailable indica se o produto pode ser comprado.
func (p *Product) IsAvailable() bool {
	return p.Status == StatusAvailable
}

// Reserve transiciona available→reserved, registrando o comprador e o instante.
func (p *Product) Reserve(buyerID uuid.UUID) error {
	if !p.IsAvailable() {
		return fmt.Errorf("produto não está disponível para reserva (status: %s)", p.Status)
	}
	now := time.Now().UTC()
	p.Status = StatusReserved
	p.ReservedBy = &buyerID
	p.ReservedAt = &now
	p.touch()
	p.record("ProductReserved", p.ID, map[string]interface{}{"buyer_id": buyerID.String()})
	return nil
}

// ReleaseReservation reverte reserved→available.
func (p *Product) ReleaseReservation() error {
	if p.Status != StatusReserved {
		return fmt.Errorf("produto não está reservado")
	}
	p.Status = StatusAvailable
	p.ReservedBy = nil
	p.ReservedAt = nil
	p.touch()
	p.record("ProductReservationReleased", p.ID, nil)
	return nil
}

// MarkAsSold transiciona available|reserved→sold. Sold é terminal.
func (p *Product) MarkAsSold(buyerID uuid.UUID) error {
	if p.Status == StatusSold {
		return fmt.Errorf("produto já foi vendido")
	}
	if p.Status == StatusInactive {
		return fmt.Errorf("não é possível vender um produto inativo")
	}
	now := time.Now().UTC()
	p.Status = StatusSold
	p.SoldAt = &now
	p.touch()
	p.record("ProductSold", p.ID, map[string]interface{}{
		"seller_id": p.SellerID.String(),
		"buyer_id":  buyerID.String(),
		"price":     p.Price.Amount().StringFixed(2),
	})
	return nil
}

// ApplyDiscount aplica um desconto percentual p ∈ (0, 100].
// Rejeitado para produtos vendidos.
func (p *Product) ApplyDiscount(percentage decimal.Decimal) error {
	if p.Status == StatusSold {
		return fmt.Errorf("não é possível aplicar desconto a um produto vendido")
	}
	if !percentage.IsPositive() || percentage.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("percentual de desconto deve estar entre 0 e 100")
	}

	newPrice, err := p.Price.ApplyDiscount(percentage)
	if err != nil {
		return err
	}
	p.Price = newPrice
	p.touch()
	p.record("DiscountApplied", p.ID, map[string]interface{}{
		"discount_percentage": percentage.String(),
		"new_price":           newPrice.Amount().StringFixed(2),
	})
	return nil
}

// UpdateDetails atualiza campos editáveis. Proibido para produtos vendidos.
func (p *Product) UpdateDetails(name, description string, price *Money, category ProductCategory, quantity int, images []string) error {
	if p.Status == StatusSold {
		return fmt.Errorf("não é possível atualizar um produto vendido")
	}
	if name != "" {
		p.Name = name
	}
	if description != "" {
		p.Description = description
	}
	if price != nil {
		p.Price = *price
	}
	if category != "" {
		p.Category = category
	}
	if quantity > 0 {
		p.Quantity = quantity
	}
	if images != nil {
		p.Images = images
	}
	p.touch()
	if err := p.Validate(); err != nil {
		return err
	}
	p.record("ProductUpdated", p.ID, map[string]interface{}{"seller_id": p.SellerID.String()})
	return nil
}

// Deactivate transiciona para inactive. Proibido para produtos vendidos.
func (p *Product) Deactivate() error {
	if p.Status == StatusSold {
		return fmt.Errorf("não é possível desativar um produto vendido")
	}
	p.Status = StatusInactive
	p.touch()
	p.record("ProductDeactivated", p.ID, nil)
	return nil
}

// Activate reativa um produto inativo.
func (p *Product) Activate() error {
	if p.Status == StatusSold {
		return fmt.Errorf("não é possível reativar um produto vendido")
	}
	p.Status = StatusAvailable
	p.touch()
	p.record("ProductActivated", p.ID, nil)
	return nil
}

// IncrementViewCount é a única mutação permitida sem verificação de
// propriedade (efeito colateral de leitura pública).
func (p *Product) IncrementViewCount() {
	p.ViewCount++
}

// SetQRCode grava o token e a URL da imagem do QR code.
func (p *Product) SetQRCode(data, imageURL string) error {
	if data == "" || imageURL == "" {
		return fmt.Errorf("dados e URL de imagem do QR code são obrigatórios")
	}
	p.QRCodeData = data
	p.QRCodeURL = imageURL
	p.touch()
	p.record("QRCodeGenerated", p.ID, map[string]interface{}{"qr_code_data": data})
	return nil
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now().UTC()
}

// ProductFilter define os parâmetros de busca, filtro e paginação da listagem.
type ProductFilter struct {
	Page     int
	PageSize int
	Category ProductCategory
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Search   string
	SortBy   string // "price", "created_at", "views"
	Order    string // "asc" | "desc"
	SellerID *uuid.UUID
}

// ProductPage é o resultado paginado da listagem de produtos.
type ProductPage struct {
	Items      []Product `json:"items"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}
