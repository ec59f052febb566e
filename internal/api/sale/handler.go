package sale

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"garagesale/internal/domain"
	apperror "garagesale/internal/errors"
	"garagesale/internal/pkg/logger"
	"garagesale/internal/pkg/middleware"
)

// SaleService define o contrato que o Handler espera da camada de Serviço.
type SaleService interface {
	Purchase(ctx context.Context, actor domain.Actor, productID uuid.UUID, buyerNotes string) (domain.Sale, error)
	GetByID(ctx context.Context, actor domain.Actor, id uuid.UUID) (domain.Sale, error)
	ListForUser(ctx context.Context, actor domain.Actor, page, pageSize int) ([]domain.Sale, error)
	Complete(ctx context.Context, actor domain.Actor, id uuid.UUID, sellerNotes string) (domain.Sale, error)
	Cancel(ctx context.Context, actor domain.Actor, id uuid.UUID) (domain.Sale, error)
	Refund(ctx context.Context, actor domain.Actor, id uuid.UUID) (domain.Sale, error)
}

var validate = validator.New()

// Handler agrupa os endpoints de vendas.
type Handler struct {
	Service SaleService
	Logger  logger.Logger
}

// NewHandler cria o handler de vendas.
func NewHandler(svc SaleService, log logger.Logger) *Handler {
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
		h.Logger.Error("Erro de servidor no fluxo de venda", err)
	} else {
		h.Logger.Debug("Requisição de venda rejeitada", map[string]interface{}{
			"path":     r.URL.Path,
			"status":   status,
			"category": category,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.ErrorResponse{Code: status, Category: category, Message: message})
}

// saleResponse achata o snapshot de preço na resposta.
type saleResponse struct {
	domain.Sale
	Price    string `json:"price"`
	Currency string `json:"currency"`
}

func toResponse(s domain.Sale) saleResponse {
	return saleResponse{
		Sale:     s,
		Price:    s.Price.Amount().StringFixed(2),
		Currency: s.Price.Currency(),
	}
}

type purchaseRequest struct {
	ProductID  string `json:"product_id" validate:"required,uuid4"`
	BuyerNotes string `json:"buyer_notes" validate:"omitempty,max=500"`
}

// PurchaseHandler godoc
// @Summary      Compra um produto disponível
// @Description  Compra atômica: de dois compradores simultâneos, um recebe 409.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body purchaseRequest true "Produto a comprar"
// @Success      201 {object} saleResponse
// @Failure      404 {object} domain.ErrorResponse
// @Failure      409 {object} domain.ErrorResponse
// @Router       /sales [post]
func (h *Handler) PurchaseHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Autorização necessária."), 0)
		return
	}

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
		return
	}
	if err := validate.Struct(req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewSchemaError(err.Error()), 0)
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("ID de produto inválido."), 0)
		return
	}

	sale, err := h.Service.Purchase(r.Context(), actor, productID, req.BuyerNotes)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}
	h.handleServiceResponse(w, r, toResponse(sale), nil, http.StatusCreated)
}

// GetHandler godoc
// @Summary      Detalha uma venda (comprador, vendedor ou admin)
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "ID da venda"
// @Success      200 {object} saleResponse
// @Failure      403 {object} domain.ErrorResponse
// @Failure      404 {object} domain.ErrorResponse
// @Router       /sales/{id} [get]
func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Autorização necessária."), 0)
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("ID de venda inválido."), 0)
		return
	}

	sale, err := h.Service.GetByID(r.Context(), actor, id)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}
	h.handleServiceResponse(w, r, toResponse(sale), nil, http.StatusOK)
}

// ListHandler godoc
// @Summary      Lista as vendas do usuário (como comprador ou vendedor)
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "Página"
// @Param        page_size query int false "Tamanho da página"
// @Success      200 {array} saleResponse
// @Router       /sales [get]
func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Autorização necessária."), 0)
		return
	}

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	sales, err := h.Service.ListForUser(r.Context(), actor, page, pageSize)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	out := make([]saleResponse, 0, len(sales))
	for _, s := range sales {
		out = append(out, toResponse(s))
	}
	h.handleServiceResponse(w, r, out, nil, http.StatusOK)
}

type statusRequest struct {
	Status      string `json:"status" validate:"required,oneof=completed cancelled refunded"`
	SellerNotes string `json:"seller_notes" validate:"omitempty,max=500"`
}

// StatusHandler godoc
// @Summary      Atualiza o status de uma venda
// @Description  completed: só o vendedor. cancelled: comprador ou vendedor, devolve o produto à vitrine. refunded: vendedor, só a partir de completed.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "ID da venda"
// @Param        request body statusRequest true "Novo status"
// @Success      200 {object} saleResponse
// @Failure      403 {object} domain.ErrorResponse
// @Failure      409 {object} domain.ErrorResponse
// @Failure      422 {object} domain.ErrorResponse
// @Router       /sales/{id}/status [put]
func (h *Handler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Autorização necessária."), 0)
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("ID de venda inválido."), 0)
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
		return
	}
	if err := validate.Struct(req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewSchemaError(err.Error()), 0)
		return
	}

	var sale domain.Sale
	switch req.Status {
	case "completed":
		sale, err = h.Service.Complete(r.Context(), actor, id, req.SellerNotes)
	case "cancelled":
		sale, err = h.Service.Cancel(r.Context(), actor, id)
	case "refunded":
		sale, err = h.Service.Refund(r.Context(), actor, id)
	}
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}
	h.handleServiceResponse(w, r, toResponse(sale), nil, http.StatusOK)
}
