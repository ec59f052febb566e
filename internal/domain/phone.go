package domain

import (
	"fmt"
	"regexp"
	"strconv"
)

var phoneNonDigits = regexp.MustCompile(`[^0-9]`)

// validAreaCodes contém os DDDs brasileiros em uso.
var validAreaCodes = map[int]bool{
	11: true, 12: true, 13: true, 14: true, 15: true, 16: true, 17: true, 18: true, 19: true, // São Paulo
	21: true, 22: true, 24: true, // Rio de Janeiro
	27: true, 28: true, // Espírito Santo
	31: true, 32: true, 33: true, 34: true, 35: true, 37: true, 38: true, // Minas Gerais
	41: true, 42: true, 43: true, 44: true, 45: true, 46: true, // Paraná
	47: true, 48: true, 49: true, // Santa Catarina
	51: true, 53: true, 54: true, 55: true, // Rio Grande do Sul
	61: true,           // Distrito Federal
	62: true, 64: true, // Goiás
	63: true,           // Tocantins
	65: true, 66: true, // Mato Grosso
	67: true, // Mato Grosso do Sul
	68: true, // Acre
	69: true, // Rondônia
	71: true, 73: true, 74: true, 75: true, 77: true, // Bahia
	79: true,           // Sergipe
	81: true, 87: true, // Pernambuco
	82: true, // Alagoas
	83: true, // Paraíba
	84: true, // Rio Grande do Norte
	85: true, 88: true, // Ceará
	86: true, 89: true, // Piauí
	91: true, 93: true, 94: true, // Pará
	92: true, 97: true, // Amazonas
	95: true, // Roraima
	96: true, // Amapá
	98: true, 99: true, // Maranhão
}

// Phone é um value object imutável para telefones brasileiros:
// 10 dígitos (fixo) ou 11 dígitos (celular, com o 9 na frente).
type Phone struct {
	value string
}

// NewPhone valida e constrói um Phone a partir de uma string com ou sem pontuação.
func NewPhone(value string) (Phone, error) {
	if value == "" {
		return Phone{}, fmt.Errorf("telefone não pode ser vazio")
	}

	clean := phoneNonDigits.ReplaceAllString(value, "")
	if !isValidPhone(clean) {
		return Phone{}, fmt.Errorf("telefone inválido: %s", value)
	}

	return Phone{value: clean}, nil
}

func isValidPhone(phone string) bool {
	if len(phone) != 10 && len(phone) != 11 {
		return false
	}

	areaCode, err := strconv.Atoi(phone[:2])
	if err != nil || !validAreaCodes[areaCode] {
		return false
	}

	// Celulares (11 dígitos) começam com 9 após o DDD.
	if len(phone) == 11 && phone[2] != '9' {
		return false
	}

	return true
}

// Value retorna o telefone sem pontuação.
func (p Phone) Value() string { return p.value }

// AreaCode retorna o DDD.
func (p Phone) AreaCode() string { return p.value[:2] }

// IsMobile indica se é um número de celular.
func (p Phone) IsMobile() bool { return len(p.value) == 11 }

// Formatted retorna (XX) 9XXXX-XXXX para celular ou (XX) XXXX-XXXX para fixo.
func (p Phone) Formatted() string {
	if p.IsMobile() {
		return fmt.Sprintf("(%s) %s-%s", p.value[:2], p.value[2:7], p.value[7:])
	}
	return fmt.Sprintf("(%s) %s-%s", p.value[:2], p.value[2:6], p.value[6:])
}

// WhatsAppLink retorna o deeplink de mensagem com o código do país.
func (p Phone) WhatsAppLink() string {
	return "https://wa.me/55" + p.value
}

func (p Phone) String() string { return p.Formatted() }
