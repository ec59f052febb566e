package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Moedas suportadas pelo marketplace.
const (
	CurrencyBRL = "BRL"
	CurrencyUSD = "USD"
	CurrencyEUR = "EUR"
)

var supportedCurrencies = map[string]bool{
	CurrencyBRL: true,
	CurrencyUSD: true,
	CurrencyEUR: true,
}

// Money é um value object imutável: valor decimal com exatamente 2 casas
// e uma tag de moeda. Operações entre moedas diferentes falham.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// NewMoney valida e constrói um Money, arredondando para 2 casas decimais.
// Valores negativos não são construíveis.
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	if !supportedCurrencies[currency] {
		return Money{}, fmt.Errorf("moeda não suportada: %s", currency)
	}

	rounded := amount.Round(2)
	if rounded.IsNegative() {
		return Money{}, fmt.Errorf("valor monetário não pode ser negativo")
	}

	return Money{amount: rounded, currency: currency}, nil
}

// NewMoneyFromString constrói um Money a partir de uma string decimal (e.g. "1500.00").
func NewMoneyFromString(amount string, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("valor monetário inválido: %s", amount)
	}
	return NewMoney(d, currency)
}

// Amount retorna o valor decimal (2 casas).
func (m Money) Amount() decimal.Decimal { return m.amount }

// Currency retorna a tag da moeda.
func (m Money) Currency() string { return m.currency }

// IsZero indica valor zero.
func (m Money) IsZero() bool { return m.amount.IsZero() }

// Add soma dois valores da mesma moeda.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("não é possível somar moedas diferentes: %s e %s", m.currency, other.currency)
	}
	return NewMoney(m.amount.Add(other.amount), m.currency)
}

// Subtract subtrai dois valores da mesma moeda; o resultado não pode ser negativo.
func (m Money) Subtract(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("não é possível subtrair moedas diferentes: %s e %s", m.currency, other.currency)
	}
	result := m.amount.Sub(other.amount)
	if result.IsNegative() {
		return Money{}, fmt.Errorf("subtração resultaria em valor negativo")
	}
	return NewMoney(result, m.currency)
}

// Multiply multiplica o valor por um fator não negativo.
func (m Money) Multiply(factor decimal.Decimal) (Money, error) {
	if factor.IsNegative() {
		return Money{}, fmt.Errorf("fator de multiplicação não pode ser negativo")
	}
	return NewMoney(m.amount.Mul(factor), m.currency)
}

// ApplyDiscount aplica um desconto percentual p ∈ [0, 100],
// com arredondamento consistente para 2 casas.
func (m Money) ApplyDiscount(percentage decimal.Decimal) (Money, error) {
	if percentage.IsNegative() || percentage.GreaterThan(decimal.NewFromInt(100)) {
		return Money{}, fmt.Errorf("percentual de desconto deve estar entre 0 e 100")
	}

	factor := decimal.NewFromInt(1).Sub(percentage.Div(decimal.NewFromInt(100)))
	return NewMoney(m.amount.Mul(factor), m.currency)
}

// Equals compara valor e moeda.
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// LessThan compara valores da mesma moeda.
func (m Money) LessThan(other Money) (bool, error) {
	if m.currency != other.currency {
		return false, fmt.Errorf("não é possível comparar moedas diferentes: %s e %s", m.currency, other.currency)
	}
	return m.amount.LessThan(other.amount), nil
}

// GreaterThan compara valores da mesma moeda.
func (m Money) GreaterThan(other Money) (bool, error) {
	if m.currency != other.currency {
		return false, fmt.Errorf("não é possível comparar moedas diferentes: %s e %s", m.currency, other.currency)
	}
	return m.amount.GreaterThan(other.amount), nil
}

// Formatted retorna o valor com o símbolo da moeda (e.g., "R$ 1500.00").
func (m Money) Formatted() string {
	switch m.currency {
	case CurrencyBRL:
		return "R$ " + m.amount.StringFixed(2)
	case CurrencyUSD:
		return "$ " + m.amount.StringFixed(2)
	case CurrencyEUR:
		return "€ " + m.amount.StringFixed(2)
	}
	return m.currency + " " + m.amount.StringFixed(2)
}

func (m Money) String() string { return m.Formatted() }
