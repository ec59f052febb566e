package router_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"garagesale/internal/api/auth"
	"garagesale/internal/api/product"
	"garagesale/internal/api/qrcode"
	"garagesale/internal/api/router"
	"garagesale/internal/api/sale"
	"garagesale/internal/api/user"
	"garagesale/internal/pkg/cache"
	"garagesale/internal/pkg/logger"
	"garagesale/internal/pkg/middleware"
	"garagesale/internal/pkg/token"
)

// stubCache simula um Redis vazio para o rate limiter.
type stubCache struct{}

func (stubCache) Get(context.Context, string) (string, error)                   { return "", cache.ErrCacheMiss }
func (stubCache) GetInt(context.Context, string) (int, error)                   { return 0, cache.ErrCacheMiss }
func (stubCache) Set(context.Context, string, interface{}, time.Duration) error { return nil }
func (stubCache) Incr(context.Context, string) error                            { return nil }
func (stubCache) Delete(context.Context, string) error                          { return nil }

// newRouter monta o roteador com handlers sem serviço: os testes daqui só
// exercitam o que os middlewares decidem antes de chegar ao handler.
func newRouter() (http.Handler, *token.Service) {
	log := logger.NewLogger("debug")
	tokens := token.NewService("segredo-de-teste", time.Hour, 24*time.Hour)

	h := router.Handlers{
		Auth:    auth.NewHandler(nil, log),
		User:    user.NewHandler(nil, log),
		Product: product.NewHandler(nil, log),
		Sale:    sale.NewHandler(nil, log),
		QRCode:  qrcode.NewHandler(nil, log),
	}
	authMw := middleware.NewAuthMiddleware(tokens)
	limiter := middleware.NewRateLimiter(stubCache{}, log, 100, time.Minute)
	return router.New(h, authMw, limiter), tokens
}

// TestRouter_RotasDeVendedorExigemRole testa que as rotas de vendedor
// respondem 403 para um token de buyer, antes de chegar ao handler.
func TestRouter_RotasDeVendedorExigemRole(t *testing.T) {
	r, tokens := newRouter()
	pair, err := tokens.GeneratePair(uuid.NewString(), "buyer")
	assert.NoError(t, err)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/products"},
		{http.MethodGet, "/api/v1/products/my-products"},
		{http.MethodPost, "/api/v1/qr/generate"},
		{http.MethodGet, "/api/v1/qr/stats/" + uuid.NewString()},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		rec := httptest.NewRecorder()

		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code, "%s %s", tc.method, tc.path)
	}
}

// TestRouter_RotasProtegidasExigemToken testa o 401 sem Bearer.
func TestRouter_RotasProtegidasExigemToken(t *testing.T) {
	r, _ := newRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
