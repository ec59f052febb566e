package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"garagesale/internal/domain"
	apperror "garagesale/internal/errors"
	"garagesale/internal/pkg/token"
)

// ContextKey é um tipo próprio para chaves de contexto, evitando colisão
// com chaves string de outros pacotes.
type ContextKey int

const (
	// UserClaimsKey é a chave usada para armazenar as claims do usuário no contexto.
	UserClaimsKey ContextKey = iota
)

// TokenService define o contrato de validação necessário para o middleware.
type TokenService interface {
	ValidateAccessToken(tokenString string) (*token.CustomClaims, error)
}

// writeError envia a resposta de erro padronizada da API.
func writeError(w http.ResponseWriter, err apperror.AppError) {
	status, category, message := apperror.MapToHTTPStatus(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.ErrorResponse{
		Code:     status,
		Category: category,
		Message:  message,
	})
}

// NewAuthMiddleware cria o middleware que valida um JWT Bearer e anexa o
// Actor (UserID e Role) ao contexto da requisição.
func NewAuthMiddleware(tokenSvc TokenService) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

			// 1. Extrair o token do header Authorization: Bearer <token>
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeError(w, apperror.NewUnauthorizedError("Token de autorização ausente ou malformado."))
				return
			}
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")

			// 2. Validar o token
			claims, err := tokenSvc.ValidateAccessToken(tokenString)
			if err != nil {
				writeError(w, apperror.NewUnauthorizedError("Token inválido ou expirado."))
				return
			}

			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				writeError(w, apperror.NewUnauthorizedError("Token com identificador inválido."))
				return
			}

			// 3. Anexar o ator autenticado ao contexto
			actor := domain.Actor{
				ID:   userID,
				Role: domain.UserRole(claims.Role),
			}
			ctx := context.WithValue(r.Context(), UserClaimsKey, actor)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorFromContext extrai o ator autenticado no handler.
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(UserClaimsKey).(domain.Actor)
	return actor, ok
}

// PermissionMiddleware restringe a rota aos papéis informados.
// Deve ser encadeado após o NewAuthMiddleware.
func PermissionMiddleware(requiredRoles ...domain.UserRole) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

			actor, ok := ActorFromContext(r.Context())
			if !ok {
				writeError(w, apperror.NewUnauthorizedError("Autorização necessária. Token não processado."))
				return
			}

			if !actor.HasRole(requiredRoles...) {
				writeError(w, apperror.NewForbiddenError("Você não tem a permissão necessária."))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
