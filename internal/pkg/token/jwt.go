package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Tipos de token emitidos pelo serviço.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// TokenService define o contrato para manipulação de JWTs.
type TokenService interface {
	GeneratePair(userID string, userRole string) (Pair, error)
	ValidateAccessToken(tokenString string) (*CustomClaims, error)
	ValidateRefreshToken(tokenString string) (*CustomClaims, error)
}

// Pair agrupa os tokens de acesso e de refresh emitidos em um login.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"` // segundos até a expiração do access token
}

// CustomClaims define as informações específicas que armazenamos no JWT.
// É obrigatório incorporar jwt.RegisteredClaims.
type CustomClaims struct {
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	TokenUse  string `json:"token_use"` // "access" ou "refresh"
	jwt.RegisteredClaims
}

// Service implementa a interface TokenService.
type Service struct {
	secretKey     []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewService cria uma nova instância do serviço de tokens.
func NewService(secretKey string, accessExpiry, refreshExpiry time.Duration) *Service {
	return &Service{
		secretKey:     []byte(secretKey),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

// GeneratePair cria o par access/refresh assinado contendo o ID e a Role do usuário.
func (s *Service) GeneratePair(userID string, userRole string) (Pair, error) {
	access, err := s.sign(userID, userRole, TypeAccess, s.accessExpiry)
	if err != nil {
		return Pair{}, err
	}

	refresh, err := s.sign(userID, userRole, TypeRefresh, s.refreshExpiry)
	if err != nil {
		return Pair{}, err
	}

	return Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int(s.accessExpiry.Seconds()),
	}, nil
}

func (s *Service) sign(userID, userRole, use string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := CustomClaims{
		UserID:   userID,
		Role:     userRole,
		TokenUse: use,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "GarageSale-API",
			Subject:   userID,
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("falha ao assinar o token: %w", err)
	}
	return tokenString, nil
}

// ValidateAccessToken valida um access token e retorna as claims se for válido.
func (s *Service) ValidateAccessToken(tokenString string) (*CustomClaims, error) {
	return s.validate(tokenString, TypeAccess)
}

// ValidateRefreshToken valida um refresh token e retorna as claims se for válido.
func (s *Service) ValidateRefreshToken(tokenString string) (*CustomClaims, error) {
	return s.validate(tokenString, TypeRefresh)
}

func (s *Service) validate(tokenString, expectedUse string) (*CustomClaims, error) {
	claims := &CustomClaims{}

	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		// Verifica se o método de assinatura é o esperado (HS256).
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de assinatura inesperado: %v", t.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("token inválido: %w", err)
	}

	if !parsed.Valid {
		return nil, errors.New("token não é válido")
	}

	if claims.TokenUse != expectedUse {
		return nil, fmt.Errorf("tipo de token inesperado: %s", claims.TokenUse)
	}

	return claims, nil
}
