package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"garagesale/internal/domain"
)

// TestNewPhone_Celular testa um celular válido com pontuação.
func TestNewPhone_Celular(t *testing.T) {
	phone, err := domain.NewPhone("(11) 98765-4321")
	assert.NoError(t, err)
	assert.Equal(t, "11987654321", phone.Value())
	assert.Equal(t, "11", phone.AreaCode())
	assert.True(t, phone.IsMobile())
	assert.Equal(t, "(11) 98765-4321", phone.Formatted())
	assert.Equal(t, "https://wa.me/5511987654321", phone.WhatsAppLink())
}

// TestNewPhone_Fixo testa um telefone fixo de 10 dígitos.
func TestNewPhone_Fixo(t *testing.T) {
	phone, err := domain.NewPhone("2133334444")
	assert.NoError(t, err)
	assert.False(t, phone.IsMobile())
	assert.Equal(t, "(21) 3333-4444", phone.Formatted())
}

// TestNewPhone_Invalido testa a rejeição de números inválidos.
func TestNewPhone_Invalido(t *testing.T) {
	cases := map[string]string{
		"vazio":             "",
		"curto":             "119876543",
		"longo":             "119876543210",
		"ddd inexistente":   "00987654321",
		"celular sem nove":  "11887654321",
	}

	for name, input := range cases {
		_, err := domain.NewPhone(input)
		assert.Error(t, err, "caso: %s", name)
	}
}
