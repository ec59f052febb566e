package domain

import (
	"fmt"
	"regexp"
)

var cpfNonDigits = regexp.MustCompile(`[^0-9]`)

// CPF é um value object imutável para o cadastro de pessoa física brasileiro.
// A construção remove pontuação e valida os dois dígitos verificadores.
type CPF struct {
	value string
}

// NewCPF valida e constrói um CPF a partir de uma string com ou sem pontuação.
func NewCPF(value string) (CPF, error) {
	if value == "" {
		return CPF{}, fmt.Errorf("CPF não pode ser vazio")
	}

	clean := cpfNonDigits.ReplaceAllString(value, "")
	if !isValidCPF(clean) {
		return CPF{}, fmt.Errorf("CPF inválido: %s", value)
	}

	return CPF{value: clean}, nil
}

// isValidCPF aplica o algoritmo dos dígitos verificadores (soma ponderada módulo 11, duas vezes).
func isValidCPF(cpf string) bool {
	if len(cpf) != 11 {
		return false
	}

	// Sequências com todos os dígitos iguais passam no cálculo, mas não são CPFs reais.
	allSame := true
	for i := 1; i < 11; i++ {
		if cpf[i] != cpf[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return false
	}

	digits := make([]int, 11)
	for i, r := range cpf {
		digits[i] = int(r - '0')
	}

	// Primeiro dígito verificador.
	sum := 0
	for i := 0; i < 9; i++ {
		sum += digits[i] * (10 - i)
	}
	first := (sum * 10) % 11
	if first == 10 {
		first = 0
	}
	if first != digits[9] {
		return false
	}

	// Segundo dígito verificador.
	sum = 0
	for i := 0; i < 10; i++ {
		sum += digits[i] * (11 - i)
	}
	second := (sum * 10) % 11
	if second == 10 {
		second = 0
	}
	return second == digits[10]
}

// Value retorna o CPF sem pontuação (11 dígitos).
func (c CPF) Value() string { return c.value }

// Formatted retorna o CPF na forma canônica XXX.XXX.XXX-XX.
func (c CPF) Formatted() string {
	return fmt.Sprintf("%s.%s.%s-%s", c.value[:3], c.value[3:6], c.value[6:9], c.value[9:])
}

func (c CPF) String() string { return c.Formatted() }
