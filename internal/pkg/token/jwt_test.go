package token_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"garagesale/internal/pkg/token"
)

// TestGeneratePair_ValidacaoCruzada testa emissão e validação do par de tokens.
func TestGeneratePair_ValidacaoCruzada(t *testing.T) {
	svc := token.NewService("segredo-de-teste", time.Hour, 24*time.Hour)

	pair, err := svc.GeneratePair("user-123", "seller")
	assert.NoError(t, err)
	assert.Equal(t, "bearer", pair.TokenType)
	assert.Equal(t, 3600, pair.ExpiresIn)

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	assert.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "seller", claims.Role)
	assert.Equal(t, token.TypeAccess, claims.TokenUse)

	refreshClaims, err := svc.ValidateRefreshToken(pair.RefreshToken)
	assert.NoError(t, err)
	assert.Equal(t, token.TypeRefresh, refreshClaims.TokenUse)
}

// TestValidate_RejeitaUsoTrocado testa que access não passa como refresh e vice-versa.
func TestValidate_RejeitaUsoTrocado(t *testing.T) {
	svc := token.NewService("segredo-de-teste", time.Hour, 24*time.Hour)

	pair, err := svc.GeneratePair("user-123", "buyer")
	assert.NoError(t, err)

	_, err = svc.ValidateRefreshToken(pair.AccessToken)
	assert.Error(t, err)

	_, err = svc.ValidateAccessToken(pair.RefreshToken)
	assert.Error(t, err)
}

// TestValidate_RejeitaAssinaturaErrada testa tokens assinados com outro segredo.
func TestValidate_RejeitaAssinaturaErrada(t *testing.T) {
	emissor := token.NewService("segredo-a", time.Hour, 24*time.Hour)
	validador := token.NewService("segredo-b", time.Hour, 24*time.Hour)

	pair, err := emissor.GeneratePair("user-123", "buyer")
	assert.NoError(t, err)

	_, err = validador.ValidateAccessToken(pair.AccessToken)
	assert.Error(t, err)
}

// TestValidate_RejeitaExpirado testa tokens vencidos.
func TestValidate_RejeitaExpirado(t *testing.T) {
	svc := token.NewService("segredo-de-teste", -time.Minute, -time.Minute)

	pair, err := svc.GeneratePair("user-123", "buyer")
	assert.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.AccessToken)
	assert.Error(t, err)

	_, err = svc.ValidateAccessToken("lixo.nao.jwt")
	assert.Error(t, err)
}
