package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	// Pacotes de infraestrutura e utilitários
	"garagesale/config"
	"garagesale/internal/domain"
	"garagesale/internal/pkg/cache"
	"garagesale/internal/pkg/database"
	"garagesale/internal/pkg/eventbus"
	"garagesale/internal/pkg/logger"
	"garagesale/internal/pkg/middleware"
	"garagesale/internal/pkg/storage"
	"garagesale/internal/pkg/token"

	// Camadas da aplicação para Injeção de Dependências
	"garagesale/internal/api/auth"
	"garagesale/internal/api/product"
	"garagesale/internal/api/qrcode"
	"garagesale/internal/api/router"
	"garagesale/internal/api/sale"
	"garagesale/internal/api/user"
	"garagesale/internal/repository/cleanupqueue"
	"garagesale/internal/repository/productrepo"
	"garagesale/internal/repository/profilerepo"
	"garagesale/internal/repository/qrscanrepo"
	"garagesale/internal/repository/salerepo"
	"garagesale/internal/service/authservice"
	"garagesale/internal/service/productservice"
	"garagesale/internal/service/profileservice"
	"garagesale/internal/service/qrcodeservice"
	"garagesale/internal/service/saleservice"
	"garagesale/internal/worker"
)

// @title           GarageSale API
// @version         1.0
// @description     API do bazar de garagem: perfis, produtos, vendas e QR codes.
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	log.Println("⚡ Inicializando serviço GarageSale...")

	// 0. CARREGAR VARIÁVEIS DE AMBIENTE (.env)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Aviso: Arquivo .env não encontrado. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	appLog := logger.NewLogger(cfg.LogLevel)
	appLog.Info("Configurações carregadas.", nil)

	// 1. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		appLog.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	appLog.Info("Conexão PostgreSQL estabelecida.", nil)

	// B. Cache (Redis)
	cacheClient := cache.NewRedisClient(cfg.RedisAddr)
	appLog.Info("Conexão Redis estabelecida.", nil)

	// C. Storage de objetos (S3 ou compatível)
	store, err := storage.NewS3Storage(storage.S3Config{
		Region:   cfg.S3Region,
		Bucket:   cfg.S3Bucket,
		Endpoint: cfg.S3Endpoint,
		BaseURL:  cfg.S3BaseURL,
	})
	if err != nil {
		appLog.Fatal("Falha ao inicializar o storage de objetos.", err)
	}
	appLog.Info("Storage de objetos inicializado.", nil)

	// D. Serviço de Tokens (JWT)
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.AccessExpiry, cfg.RefreshExpiry)

	// E. Bus de eventos de domínio (em processo)
	bus := eventbus.NewBus(appLog)
	bus.Subscribe("ProductSold", func(e domain.Event) {
		// Ponto de extensão para notificações ao vendedor.
		appLog.Info("Produto vendido", map[string]interface{}{
			"product_id": e.EntityID.String(),
			"payload":    e.Payload,
		})
	})

	// 2. INJEÇÃO DE DEPENDÊNCIAS (Repository -> Service -> Handler)

	profileRepo := profilerepo.NewRepository(db, appLog)
	productRepo := productrepo.NewRepository(db, cacheClient, appLog)
	saleRepo := salerepo.NewRepository(db, appLog)
	scanRepo := qrscanrepo.NewRepository(db)
	cleanupRepo := cleanupqueue.NewRepository(db)

	authSvc := authservice.NewService(profileRepo, tokenSvc, bus, appLog, cfg.RequireEmailConfirmation)
	profileSvc := profileservice.NewService(profileRepo, bus, appLog)
	productSvc := productservice.NewService(productRepo, profileRepo, store, bus, appLog)
	saleSvc := saleservice.NewService(saleRepo, profileRepo, productRepo, bus, appLog)
	qrcodeSvc := qrcodeservice.NewService(productRepo, scanRepo, profileRepo, store, appLog, cfg.PublicBaseURL)

	handlers := router.Handlers{
		Auth:    auth.NewHandler(authSvc, appLog),
		User:    user.NewHandler(profileSvc, appLog),
		Product: product.NewHandler(productSvc, appLog),
		Sale:    sale.NewHandler(saleSvc, appLog),
		QRCode:  qrcode.NewHandler(qrcodeSvc, appLog),
	}

	// 3. Middlewares e Roteador
	authMw := middleware.NewAuthMiddleware(tokenSvc)
	rateLimiter := middleware.NewRateLimiter(cacheClient, appLog, cfg.RateLimitMaxRequests, cfg.RateLimitPeriod)

	r := router.New(handlers, authMw, rateLimiter)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 4. Worker de limpeza do storage
	workerCtx, cancelWorker := context.WithCancel(context.Background())
	cleanupWorker := worker.NewCleanupWorker(cleanupRepo, store, appLog, cfg.CleanupInterval, cfg.CleanupBatchSize)
	go cleanupWorker.Run(workerCtx)

	// 5. Execução e Graceful Shutdown
	go func() {
		appLog.Info("Servidor GarageSale ouvindo", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	appLog.Info("Encerrando o servidor...", nil)

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLog.Fatal("Falha no encerramento do servidor.", err)
	}

	appLog.Info("Servidor encerrado com sucesso.", nil)
}
