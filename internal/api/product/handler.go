package product

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"garagesale/internal/domain"
	apperror "garagesale/internal/errors"
	"garagesale/internal/pkg/logger"
	"garagesale/internal/pkg/middleware"
	"garagesale/internal/service/productservice"
)

// ProductService define o contrato que o Handler espera da camada de Serviço.
type ProductService interface {
	Create(ctx context.Context, actor domain.Actor, in productservice.CreateInput) (domain.Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Product, error)
	List(ctx context.Context, filter domain.ProductFilter) (domain.ProductPage, error)
	ListMine(ctx context.Context, actor domain.Actor, filter domain.ProductFilter) (domain.ProductPage, error)
	Search(ctx context.Context, query string, page, pageSize int) (domain.ProductPage, error)
	Update(ctx context.Context, actor domain.Actor, id uuid.UUID, in productservice.UpdateInput) (domain.Product, error)
	ApplyDiscount(ctx context.Context, actor domain.Actor, id uuid.UUID, percentage decimal.Decimal) (domain.Product, error)
	Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error
}

var validate = validator.New()

// Handler agrupa os endpoints de produto.
type Handler struct {
	Service ProductService
	Logger  logger.Logger
}

// NewHandler cria o handler de produtos.
func NewHandler(svc ProductService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)
		if data != nil {
			if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
				h.Logger.Error("Falha ao codificar JSON de resposta", jsonErr)
			}
		}
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)
	if status >= 500 {
		h.Logger.Error("Erro de servidor no fluxo de produto", err)
	} else {
		h.Logger.Debug("Requisição de produto rejeitada", map[string]interface{}{
			"path":     r.URL.Path,
			"status":   status,
			"category": category,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.ErrorResponse{Code: status, Category: category, Message: message})
}

// productResponse achata o preço (Money tem campos não exportados) na resposta.
type productResponse struct {
	domain.Product
	Price    string `json:"price"`
	Currency string `json:"currency"`
}

func toResponse(p domain.Product) productResponse {
	return productResponse{
		Product:  p,
		Price:    p.Price.Amount().StringFixed(2),
		Currency: p.Price.Currency(),
	}
}

// pageResponse é a página de produtos já com preços achatados.
type pageResponse struct {
	Items      []productResponse `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

func toPageResponse(page domain.ProductPage) pageResponse {
	items := make([]productResponse, 0, len(page.Items))
	for _, p := range page.Items {
		items = append(items, toResponse(p))
	}
	return pageResponse{
		Items:      items,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}
}

// imagePayload é uma imagem codificada em base64 no JSON da requisição.
type imagePayload struct {
	Data        string `json:"data" validate:"required"`
	ContentType string `json:"content_type" validate:"required"`
}

func decodeImages(payloads []imagePayload) ([]productservice.ImageUpload, error) {
	uploads := make([]productservice.ImageUpload, 0, len(payloads))
	for _, img := range payloads {
		data, err := base64.StdEncoding.DecodeString(img.Data)
		if err != nil {
			return nil, apperror.NewValidationError("Imagem com base64 inválido.")
		}
		uploads = append(uploads, productservice.ImageUpload{Data: data, ContentType: img.ContentType})
	}
	return uploads, nil
}

type createRequest struct {
	Name        string         `json:"name" validate:"required,min=3,max=200"`
	Description string         `json:"description" validate:"required,min=10,max=2000"`
	Price       string         `json:"price" validate:"required"`
	Currency    string         `json:"currency" validate:"omitempty,oneof=BRL USD EUR"`
	Category    string         `json:"category" validate:"omitempty"`
	Quantity    int            `json:"quantity" validate:"omitempty,gt=0"`
	Images      []imagePayload `json:"images" validate:"omitempty,max=5,dive"`
}

// CreateHandler godoc
// @Summary      Anuncia um produto
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body createRequest true "Dados do produto"
// @Success      201 {object} productResponse
// @Failure      403 {object} domain.ErrorResponse
// @Failure      422 {object} domain.ErrorResponse
// @Router       /products [post]
func (h *Handler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Autorização necessária."), 0)
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
		return
	}
	if err := validate.Struct(req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewSchemaError(err.Error()), 0)
		return
	}

	images, err := decodeImages(req.Images)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	p, err := h.Service.Create(r.Context(), actor, productservice.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Currency:    req.Currency,
		Category:    req.Category,
		Quantity:    req.Quantity,
		Images:      images,
	})
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}
	h.handleServiceResponse(w, r, toResponse(p), nil, http.StatusCreated)
}

// GetHandler godoc
// @Summary      Detalha um produto
// @Description  Leitura pública; incrementa o contador de visualizações.
// @Tags         products
// @Produce      json
// @Param        id path string true "ID do produto"
// @Success      200 {object} productResponse
// @Failure      404 {object} domain.ErrorResponse
// @Router       /products/{id} [get]
func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("ID de produto inválido."), 0)
		return
	}

	p, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}
	h.handleServiceResponse(w, r, toResponse(p), nil, http.StatusOK)
}

// parseFilter extrai os filtros de listagem da query string.
func parseFilter(r *http.Request) domain.ProductFilter {
	q := r.URL.Query()
	filter := domain.ProductFilter{
		Category: domain.ProductCategory(q.Get("category")),
		Search:   q.Get("q"),
		SortBy:   q.Get("sort_by"),
		Order:    q.Get("order"),
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.PageSize, _ = strconv.Atoi(q.Get("page_size"))

	if raw := q.Get("min_price"); raw != "" {
		if d, err := decimal.NewFromString(raw); err == nil {
			filter.MinPrice = &d
		}
	}
	if raw := q.Get("max_price"); raw != "" {
		if d, err := decimal.NewFromString(raw); err == nil {
			filter.MaxPrice = &d
		}
	}
	return filter
}

// ListHandler godoc
// @Summary      Lista a vitrine de produtos disponíveis
// @Tags         products
// @Produce      json
// @Param        page query int false "Página"
// @Param        page_size query int false "Tamanho da página"
// @Param        category query string false "Categoria"
// @Param        min_price query string false "Preço mínimo"
// @Param        max_price query string false "Preço máximo"
// @Param        sort_by query string false "price | created_at | views"
// @Param        order query string false "asc | desc"
// @Success      200 {object} pageResponse
// @Router       /products [get]
func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	page, err := h.Service.List(r.Context(), parseFilter(r))
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}
	h.handleServiceResponse(w, r, toPageResponse(page), nil, http.StatusOK)
}

// ListMineHandler godoc
// @Summary      Lista os produtos do vendedor autenticado
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} pageResponse
// @Router       /products/my-products [get]
func (h *Handler) ListMineHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Autorização necessária."), 0)
		return
	}

	page, err := h.Service.ListMine(r.Context(), actor, parseFilter(r))
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}
	h.handleServiceResponse(w, r, toPageResponse(page), nil, http.StatusOK)
}

// SearchHandler godoc
// @Summary      Busca produtos disponíveis por termo
// @Description  Match no nome pesa mais que match na descrição.
// @Tags         products
// @Produce      json
// @Param        q query string true "Termo de busca"
// @Param        page query int false "Página"
// @Param        page_size query int false "Tamanho da página"
// @Success      200 {object} pageResponse
// @Failure      400 {object} domain.ErrorResponse
// @Router       /products/search [get]
func (h *Handler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pageNum, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	page, err := h.Service.Search(r.Context(), q.Get("q"), pageNum, pageSize)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}
	h.handleServiceResponse(w, r, toPageResponse(page), nil, http.StatusOK)
}

type updateRequest struct {
	Name        string         `json:"name" validate:"omitempty,min=3,max=200"`
	Description string         `json:"description" validate:"omitempty,min=10,max=2000"`
	Price       string         `json:"price" validate:"omitempty"`
	Currency    string         `json:"currency" validate:"omitempty,oneof=BRL USD EUR"`
	Category    string         `json:"category" validate:"omitempty"`
	Quantity    int            `json:"quantity" validate:"omitempty,gt=0"`
	Images      []imagePayload `json:"images" validate:"omitempty,max=5,dive"`
}

// UpdateHandler godoc
// @Summary      Edita um produto do próprio vendedor
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "ID do produto"
// @Param        request body updateRequest true "Campos a alterar"
// @Success      200 {object} productResponse
// @Failure      403 {object} domain.ErrorResponse
// @Failure      409 {object} domain.ErrorResponse
// @Router       /products/{id} [put]
func (h *Handler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Autorização necessária."), 0)
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("ID de produto inválido."), 0)
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
		return
	}
	if err := validate.Struct(req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewSchemaError(err.Error()), 0)
		return
	}

	images, err := decodeImages(req.Images)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	p, err := h.Service.Update(r.Context(), actor, id, productservice.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Currency:    req.Currency,
		Category:    req.Category,
		Quantity:    req.Quantity,
		Images:      images,
	})
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}
	h.handleServiceResponse(w, r, toResponse(p), nil, http.StatusOK)
}

type discountRequest struct {
	Percentage string `json:"percentage" validate:"required"`
}

// DiscountHandler godoc
// @Summary      Aplica desconto percentual a um produto
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "ID do produto"
// @Param        request body discountRequest true "Percentual (0, 100]"
// @Success      200 {object} productResponse
// @Failure      400 {object} domain.ErrorResponse
// @Router       /products/{id}/discount [post]
func (h *Handler) DiscountHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Autorização necessária."), 0)
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("ID de produto inválido."), 0)
		return
	}

	var req discountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
		return
	}
	if err := validate.Struct(req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewSchemaError(err.Error()), 0)
		return
	}

	percentage, err := decimal.NewFromString(req.Percentage)
	if err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Percentual de desconto inválido."), 0)
		return
	}

	p, err := h.Service.ApplyDiscount(r.Context(), actor, id, percentage)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}
	h.handleServiceResponse(w, r, toResponse(p), nil, http.StatusOK)
}

// DeleteHandler godoc
// @Summary      Remove um produto do próprio vendedor
// @Tags         products
// @Security     BearerAuth
// @Param        id path string true "ID do produto"
// @Success      204 "Sem conteúdo"
// @Failure      403 {object} domain.ErrorResponse
// @Failure      409 {object} domain.ErrorResponse
// @Router       /products/{id} [delete]
func (h *Handler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Autorização necessária."), 0)
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("ID de produto inválido."), 0)
		return
	}

	if err := h.Service.Delete(r.Context(), actor, id); err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}
	h.handleServiceResponse(w, r, nil, nil, http.StatusNoContent)
}
