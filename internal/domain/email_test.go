package domain_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"garagesale/internal/domain"
)

// TestNewEmail_NormalizaMinusculas testa a normalização para minúsculas.
func TestNewEmail_NormalizaMinusculas(t *testing.T) {
	email, err := domain.NewEmail("  Maria.Silva@Example.COM ")
	assert.NoError(t, err)
	assert.Equal(t, "maria.silva@example.com", email.Value())
	assert.Equal(t, "maria.silva", email.LocalPart())
	assert.Equal(t, "example.com", email.Domain())
}

// TestNewEmail_Invalido testa a rejeição de formatos inválidos.
func TestNewEmail_Invalido(t *testing.T) {
	cases := []string{
		"",
		"sem-arroba.com",
		"a@b",
		"@dominio.com",
		"usuario@",
		strings.Repeat("a", 250) + "@example.com",
	}

	for _, input := range cases {
		_, err := domain.NewEmail(input)
		assert.Error(t, err, "entrada: %q", input)
	}
}
