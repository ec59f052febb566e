package qrcode

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"garagesale/internal/domain"
	apperror "garagesale/internal/errors"
	"garagesale/internal/pkg/logger"
	"garagesale/internal/pkg/middleware"
	"garagesale/internal/service/qrcodeservice"
)

// QRCodeService define o contrato que o Handler espera da camada de Serviço.
type QRCodeService interface {
	Generate(ctx context.Context, actor domain.Actor, productID uuid.UUID) (qrcodeservice.GenerateResult, error)
	Scan(ctx context.Context, token string, scannerID *uuid.UUID, userAgent string) (qrcodeservice.ScanResult, error)
	Stats(ctx context.Context, actor domain.Actor, productID uuid.UUID) (int, error)
}

var validate = validator.New()

// Handler agrupa os endpoints de QR code.
type Handler struct {
	Service QRCodeService
	Logger  logger.Logger
}

// NewHandler cria o handler de QR codes.
func NewHandler(svc QRCodeService, log logger.Logger) *Handler {
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
		h.Logger.Error("Erro de servidor no fluxo de QR code", err)
	} else {
		h.Logger.Debug("Requisição de QR code rejeitada", map[string]interface{}{
			"path":     r.URL.Path,
			"status":   status,
			"category": category,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.ErrorResponse{Code: status, Category: category, Message: message})
}

type generateRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid4"`
}

// GenerateHandler godoc
// @Summary      Gera o QR code de um produto do próprio vendedor
// @Tags         qr
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body generateRequest true "Produto alvo"
// @Success      201 {object} qrcodeservice.GenerateResult
// @Failure      403 {object} domain.ErrorResponse
// @Failure      404 {object} domain.ErrorResponse
// @Router       /qr/generate [post]
func (h *Handler) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Autorização necessária."), 0)
		return
	}

	var req generateRequest
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

	result, err := h.Service.Generate(r.Context(), actor, productID)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}
	h.handleServiceResponse(w, r, result, nil, http.StatusCreated)
}

// ScanHandler godoc
// @Summary      Resolve a leitura de um QR code
// @Description  Endpoint público: devolve o produto e o contato do vendedor, registrando a leitura.
// @Tags         qr
// @Produce      json
// @Param        token path string true "Token do QR code"
// @Success      200 {object} qrcodeservice.ScanResult
// @Failure      404 {object} domain.ErrorResponse
// @Router       /qr/scan/{token} [get]
func (h *Handler) ScanHandler(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	if token == "" {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Token do QR code é obrigatório."), 0)
		return
	}

	// Leitura é pública, mas se houver sessão o scanner fica identificado.
	var scannerID *uuid.UUID
	if actor, ok := middleware.ActorFromContext(r.Context()); ok {
		scannerID = &actor.ID
	}

	result, err := h.Service.Scan(r.Context(), token, scannerID, r.UserAgent())
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}
	h.handleServiceResponse(w, r, result, nil, http.StatusOK)
}

// statsResponse é a contagem de leituras de um produto.
type statsResponse struct {
	ProductID uuid.UUID `json:"product_id"`
	ScanCount int       `json:"scan_count"`
}

// StatsHandler godoc
// @Summary      Estatísticas de leitura do QR code de um produto
// @Tags         qr
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "ID do produto"
// @Success      200 {object} statsResponse
// @Failure      403 {object} domain.ErrorResponse
// @Router       /qr/stats/{id} [get]
func (h *Handler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Autorização necessária."), 0)
		return
	}

	productID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("ID de produto inválido."), 0)
		return
	}

	count, err := h.Service.Stats(r.Context(), actor, productID)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}
	h.handleServiceResponse(w, r, statsResponse{ProductID: productID, ScanCount: count}, nil, http.StatusOK)
}
