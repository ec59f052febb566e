package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"garagesale/internal/domain"
	apperror "garagesale/internal/errors"
	"garagesale/internal/pkg/logger"
	"garagesale/internal/pkg/middleware"
	"garagesale/internal/pkg/token"
)

// AuthService define o contrato que o Handler espera da camada de Serviço.
type AuthService interface {
	Register(ctx context.Context, email, password, name, cpf, phone, role string) (domain.User, error)
	Login(ctx context.Context, email, password string) (domain.User, token.Pair, error)
	Refresh(ctx context.Context, refreshToken string) (token.Pair, error)
	CurrentUser(ctx context.Context, id uuid.UUID) (domain.User, error)
}

var validate = validator.New()

// Handler agrupa os endpoints de autenticação.
type Handler struct {
	Service AuthService
	Logger  logger.Logger
}

// NewHandler cria o handler de autenticação.
func NewHandler(svc AuthService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// handleServiceResponse processa erros de serviço e envia respostas padronizadas.
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
		h.Logger.Error("Erro de servidor no fluxo de autenticação", err)
	} else {
		h.Logger.Debug("Requisição de autenticação rejeitada", map[string]interface{}{
			"path":     r.URL.Path,
			"status":   status,
			"category": category,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.ErrorResponse{Code: status, Category: category, Message: message})
}

// registerRequest é o payload do cadastro. Nome, CPF e telefone são opcionais:
// ausentes, o perfil é provisionado com valores derivados (nome curto ou vazio
// cai para a parte local do email).
type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"omitempty,max=100"`
	CPF      string `json:"cpf" validate:"omitempty"`
	Phone    string `json:"phone" validate:"omitempty"`
	Role     string `json:"role" validate:"omitempty"`
}

// RegisterHandler godoc
// @Summary      Cadastra um novo usuário
// @Description  Cria a identidade e provisiona o perfil (com placeholders se nome/CPF/telefone não vierem).
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body registerRequest true "Dados do cadastro"
// @Success      201 {object} domain.User
// @Failure      400 {object} domain.ErrorResponse
// @Failure      409 {object} domain.ErrorResponse
// @Failure      422 {object} domain.ErrorResponse
// @Router       /auth/register [post]
func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
		return
	}
	if err := validate.Struct(req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewSchemaError(err.Error()), 0)
		return
	}

	user, err := h.Service.Register(r.Context(), req.Email, req.Password, req.Name, req.CPF, req.Phone, req.Role)
	h.handleServiceResponse(w, r, user, err, http.StatusCreated)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginHandler godoc
// @Summary      Autentica um usuário
// @Description  Aceita form-encoded (username/password) ou JSON (email/password); responde o par de tokens.
// @Tags         auth
// @Accept       x-www-form-urlencoded
// @Accept       json
// @Produce      json
// @Param        username formData string false "Email"
// @Param        password formData string false "Senha"
// @Success      200 {object} token.Pair
// @Failure      401 {object} domain.ErrorResponse
// @Failure      422 {object} domain.ErrorResponse
// @Router       /auth/login [post]
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Formulário inválido."), 0)
			return
		}
		req.Email = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
			return
		}
	}
	if err := validate.Struct(req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewSchemaError(err.Error()), 0)
		return
	}

	_, pair, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}
	h.handleServiceResponse(w, r, pair, nil, http.StatusOK)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshHandler godoc
// @Summary      Renova o par de tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body refreshRequest true "Refresh token"
// @Success      200 {object} token.Pair
// @Failure      401 {object} domain.ErrorResponse
// @Router       /auth/refresh [post]
func (h *Handler) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
		return
	}
	if err := validate.Struct(req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewSchemaError(err.Error()), 0)
		return
	}

	pair, err := h.Service.Refresh(r.Context(), req.RefreshToken)
	h.handleServiceResponse(w, r, pair, err, http.StatusOK)
}

// MeHandler godoc
// @Summary      Perfil do usuário autenticado
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} domain.User
// @Failure      401 {object} domain.ErrorResponse
// @Failure      404 {object} domain.ErrorResponse
// @Router       /auth/me [get]
func (h *Handler) MeHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Autorização necessária."), 0)
		return
	}

	user, err := h.Service.CurrentUser(r.Context(), actor.ID)
	h.handleServiceResponse(w, r, user, err, http.StatusOK)
}
