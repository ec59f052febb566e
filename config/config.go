package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config armazena todas as configurações do GarageSale, carregadas do ambiente.
type Config struct {
	// Geral
	Port          string
	Environment   string
	LogLevel      string
	PublicBaseURL string // prefixo público da API, usado nas URLs de scan de QR code

	// Banco de Dados (PostgreSQL)
	DatabaseURL string
	DBTimeout   time.Duration

	// Cache (Redis)
	RedisAddr string

	// Segurança (JWT)
	JWTSecretKey  string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration

	// Autenticação
	RequireEmailConfirmation bool

	// Rate Limiting
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration

	// Storage de objetos (S3 ou compatível)
	S3Region   string
	S3Bucket   string
	S3Endpoint string
	S3BaseURL  string

	// Worker de limpeza do storage
	CleanupInterval  time.Duration
	CleanupBatchSize int
}

// LoadConfig carrega as configurações a partir das variáveis de ambiente.
func LoadConfig() *Config {
	cfg := &Config{
		// 1. Geral
		Port:          getEnv("PORT", "8080"),
		Environment:   getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),

		// 2. Banco de Dados (PostgreSQL)
		// mustGetEnv garante que a aplicação não inicie sem credenciais de DB.
		DatabaseURL: mustGetEnv("DATABASE_URL"),
		DBTimeout:   getDurationEnv("DB_TIMEOUT_SEC", 5) * time.Second,

		// 3. Cache (Redis)
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),

		// 4. Segurança (JWT)
		JWTSecretKey:  mustGetEnv("JWT_SECRET_KEY"),
		AccessExpiry:  getDurationEnv("JWT_ACCESS_EXPIRY_MIN", 60) * time.Minute,
		RefreshExpiry: getDurationEnv("JWT_REFRESH_EXPIRY_HOURS", 24*7) * time.Hour,

		// 5. Autenticação
		RequireEmailConfirmation: getBoolEnv("REQUIRE_EMAIL_CONFIRMATION", false),

		// 6. Rate Limiting
		RateLimitMaxRequests: getIntEnv("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitPeriod:      getDurationEnv("RATE_LIMIT_PERIOD_MIN", 1) * time.Minute,

		// 7. Storage de objetos
		S3Region:   getEnv("S3_REGION", "us-east-1"),
		S3Bucket:   getEnv("S3_BUCKET", "garagesale-media"),
		S3Endpoint: getEnv("S3_ENDPOINT", ""),
		S3BaseURL:  getEnv("S3_BASE_URL", "https://garagesale-media.s3.amazonaws.com"),

		// 8. Worker de limpeza
		CleanupInterval:  getDurationEnv("CLEANUP_INTERVAL_SEC", 60) * time.Second,
		CleanupBatchSize: getIntEnv("CLEANUP_BATCH_SIZE", 20),
	}

	return cfg
}

// Funções Helpers (Auxiliares)

// getEnv lê a variável de ambiente ou retorna um valor padrão.
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// mustGetEnv lê a variável de ambiente, fatal se não estiver presente.
func mustGetEnv(key string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Fatalf("❌ Erro de Configuração: A variável de ambiente %s deve ser definida.", key)
	return ""
}

// getDurationEnv lê uma variável de ambiente numérica e retorna-a como time.Duration.
func getDurationEnv(key string, defaultValue int) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return time.Duration(defaultValue)
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("⚠️ Aviso: Valor de %s ('%s') não é um número inteiro válido. Usando padrão (%d).", key, valueStr, defaultValue)
		return time.Duration(defaultValue)
	}
	return time.Duration(value)
}

// getIntEnv lê uma variável de ambiente numérica e retorna-a como int.
func getIntEnv(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("⚠️ Aviso: Valor de %s ('%s') não é um número inteiro válido. Usando padrão (%d).", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

// getBoolEnv lê uma variável de ambiente booleana ("true"/"false").
func getBoolEnv(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("⚠️ Aviso: Valor de %s ('%s') não é um booleano válido. Usando padrão (%t).", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}
