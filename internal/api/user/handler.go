package user

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
	"garagesale/internal/service/profileservice"
)

// ProfileService define o contrato que o Handler espera da camada de Serviço.
type ProfileService interface {
	Get(ctx context.Context, id uuid.UUID) (domain.User, error)
	Update(ctx context.Context, actor domain.Actor, id uuid.UUID, in profileservice.UpdateInput) (domain.User, error)
	PromoteToSeller(ctx context.Context, actor domain.Actor, id uuid.UUID) (domain.User, error)
}

var validate = validator.New()

// Handler agrupa os endpoints de perfil.
type Handler struct {
	Service ProfileService
	Logger  logger.Logger
}

// NewHandler cria o handler de perfis.
func NewHandler(svc ProfileService, log logger.Logger) *Handler {
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
		h.Logger.Error("Erro de servidor no fluxo de perfil", err)
	} else {
		h.Logger.Debug("Requisição de perfil rejeitada", map[string]interface{}{
			"path":     r.URL.Path,
			"status":   status,
			"category": category,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.ErrorResponse{Code: status, Category: category, Message: message})
}

// publicProfile é a projeção pública do perfil: CPF e email ficam de fora.
type publicProfile struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Role             string    `json:"role"`
	StoreName        string    `json:"store_name,omitempty"`
	StoreDescription string    `json:"store_description,omitempty"`
	AvatarURL        string    `json:"avatar_url,omitempty"`
}

// GetHandler godoc
// @Summary      Perfil público de um usuário
// @Tags         users
// @Produce      json
// @Param        id path string true "ID do usuário"
// @Success      200 {object} publicProfile
// @Failure      404 {object} domain.ErrorResponse
// @Router       /users/{id} [get]
func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("ID de usuário inválido."), 0)
		return
	}

	u, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	h.handleServiceResponse(w, r, publicProfile{
		ID:               u.ID,
		Name:             u.Name,
		Role:             string(u.Role),
		StoreName:        u.StoreName,
		StoreDescription: u.StoreDescription,
		AvatarURL:        u.AvatarURL,
	}, nil, http.StatusOK)
}

type updateRequest struct {
	Name             string `json:"name" validate:"omitempty,min=3,max=100"`
	Phone            string `json:"phone" validate:"omitempty"`
	StoreName        string `json:"store_name" validate:"omitempty,max=100"`
	StoreDescription string `json:"store_description" validate:"omitempty,max=500"`
	AvatarURL        string `json:"avatar_url" validate:"omitempty,url"`
}

// UpdateMeHandler godoc
// @Summary      Edita o próprio perfil
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body updateRequest true "Campos a alterar"
// @Success      200 {object} domain.User
// @Failure      400 {object} domain.ErrorResponse
// @Failure      422 {object} domain.ErrorResponse
// @Router       /users/profile [put]
func (h *Handler) UpdateMeHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Autorização necessária."), 0)
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

	u, err := h.Service.Update(r.Context(), actor, actor.ID, profileservice.UpdateInput{
		Name:             req.Name,
		Phone:            req.Phone,
		StoreName:        req.StoreName,
		StoreDescription: req.StoreDescription,
		AvatarURL:        req.AvatarURL,
	})
	h.handleServiceResponse(w, r, u, err, http.StatusOK)
}

// PromoteMeHandler godoc
// @Summary      Promove a própria conta a vendedor
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} domain.User
// @Failure      409 {object} domain.ErrorResponse
// @Router       /users/promote-to-seller [post]
func (h *Handler) PromoteMeHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Autorização necessária."), 0)
		return
	}

	u, err := h.Service.PromoteToSeller(r.Context(), actor, actor.ID)
	h.handleServiceResponse(w, r, u, err, http.StatusOK)
}
