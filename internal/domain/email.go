package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// emailRegex cobre o formato local-part@dominio.tld.
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Email é um value object imutável: só existe em estado válido.
// A construção normaliza para minúsculas.
type Email struct {
	value string
}

// NewEmail valida e constrói um Email. Entrada inválida nunca produz instância.
func NewEmail(value string) (Email, error) {
	value = strings.ToLower(strings.TrimSpace(value))

	if value == "" {
		return Email{}, fmt.Errorf("email não pode ser vazio")
	}
	if len(value) > 255 {
		return Email{}, fmt.Errorf("email não pode exceder 255 caracteres")
	}
	if !emailRegex.MatchString(value) {
		return Email{}, fmt.Errorf("formato de email inválido: %s", value)
	}

	return Email{value: value}, nil
}

// Value retorna o endereço normalizado.
func (e Email) Value() string { return e.value }

// LocalPart retorna a parte antes do @.
func (e Email) LocalPart() string {
	return strings.SplitN(e.value, "@", 2)[0]
}

// Domain retorna a parte depois do @.
func (e Email) Domain() string {
	parts := strings.SplitN(e.value, "@", 2)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

func (e Email) String() string { return e.value }
