package router

import (
	"net/http"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "garagesale/docs" // registro da especificação swagger gerada

	"garagesale/internal/api/auth"
	"garagesale/internal/api/product"
	"garagesale/internal/api/qrcode"
	"garagesale/internal/api/sale"
	"garagesale/internal/api/user"
	"garagesale/internal/domain"
	"garagesale/internal/pkg/middleware"
)

// Handlers agrupa os handlers injetados no roteador.
type Handlers struct {
	Auth    *auth.Handler
	User    *user.Handler
	Product *product.Handler
	Sale    *sale.Handler
	QRCode  *qrcode.Handler
}

// New monta o roteador HTTP: rotas públicas, rotas autenticadas, swagger e
// o frontend estático. authMw valida o Bearer token; rateLimiter protege a
// API inteira.
func New(h Handlers, authMw func(http.Handler) http.Handler, rateLimiter *middleware.RateLimiter) http.Handler {
	r := mux.NewRouter()

	// Health check fora do prefixo versionado.
	r.HandleFunc("/ping", PingHandler).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(rateLimiter.Middleware)

	protect := func(next http.HandlerFunc) http.Handler {
		return authMw(next)
	}
	// Rotas de vendedor exigem a role no token. A promoção a seller só vale
	// no próximo refresh; os serviços ainda revalidam contra o perfil.
	protectSeller := func(next http.HandlerFunc) http.Handler {
		return authMw(middleware.PermissionMiddleware(domain.RoleSeller, domain.RoleAdmin)(next))
	}

	// --- Autenticação ---
	api.HandleFunc("/auth/register", h.Auth.RegisterHandler).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.Auth.LoginHandler).Methods(http.MethodPost)
	api.HandleFunc("/auth/refresh", h.Auth.RefreshHandler).Methods(http.MethodPost)
	api.Handle("/auth/me", protect(h.Auth.MeHandler)).Methods(http.MethodGet)

	// --- Perfis ---
	// As rotas fixas precisam vir antes de /users/{id} para não serem
	// capturadas pelo padrão de ID.
	api.Handle("/users/profile", protect(h.Auth.MeHandler)).Methods(http.MethodGet)
	api.Handle("/users/profile", protect(h.User.UpdateMeHandler)).Methods(http.MethodPut)
	api.Handle("/users/promote-to-seller", protect(h.User.PromoteMeHandler)).Methods(http.MethodPost)
	api.HandleFunc("/users/{id}", h.User.GetHandler).Methods(http.MethodGet)

	// --- Produtos ---
	// Mesmo cuidado de ordem: my-products e search antes de {id}.
	api.Handle("/products/my-products", protectSeller(h.Product.ListMineHandler)).Methods(http.MethodGet)
	api.HandleFunc("/products/search", h.Product.SearchHandler).Methods(http.MethodGet)
	api.HandleFunc("/products", h.Product.ListHandler).Methods(http.MethodGet)
	api.Handle("/products", protectSeller(h.Product.CreateHandler)).Methods(http.MethodPost)
	api.HandleFunc("/products/{id}", h.Product.GetHandler).Methods(http.MethodGet)
	api.Handle("/products/{id}", protect(h.Product.UpdateHandler)).Methods(http.MethodPut)
	api.Handle("/products/{id}", protect(h.Product.DeleteHandler)).Methods(http.MethodDelete)
	api.Handle("/products/{id}/discount", protect(h.Product.DiscountHandler)).Methods(http.MethodPost)

	// --- QR codes ---
	api.Handle("/qr/generate", protectSeller(h.QRCode.GenerateHandler)).Methods(http.MethodPost)
	api.Handle("/qr/stats/{id}", protectSeller(h.QRCode.StatsHandler)).Methods(http.MethodGet)
	api.HandleFunc("/qr/scan/{token}", h.QRCode.ScanHandler).Methods(http.MethodGet)

	// --- Vendas ---
	api.Handle("/sales", protect(h.Sale.PurchaseHandler)).Methods(http.MethodPost)
	api.Handle("/sales", protect(h.Sale.ListHandler)).Methods(http.MethodGet)
	api.Handle("/sales/{id}", protect(h.Sale.GetHandler)).Methods(http.MethodGet)
	api.Handle("/sales/{id}/status", protect(h.Sale.StatusHandler)).Methods(http.MethodPut)

	// --- Documentação ---
	r.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// --- Frontend estático ---
	r.PathPrefix("/").Handler(http.FileServer(http.Dir("./web")))

	return r
}

// PingHandler é o health check do serviço.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
