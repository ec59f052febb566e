package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"garagesale/internal/domain"
)

func mustMoney(t *testing.T, amount, currency string) domain.Money {
	t.Helper()
	m, err := domain.NewMoneyFromString(amount, currency)
	assert.NoError(t, err)
	return m
}

// TestNewMoney_ArredondaDuasCasas testa o arredondamento na construção.
func TestNewMoney_ArredondaDuasCasas(t *testing.T) {
	m := mustMoney(t, "10.555", domain.CurrencyBRL)
	assert.Equal(t, "10.56", m.Amount().StringFixed(2))
	assert.Equal(t, domain.CurrencyBRL, m.Currency())
}

// TestNewMoney_RejeitaNegativoEMoedaDesconhecida testa as regras de construção.
func TestNewMoney_RejeitaNegativoEMoedaDesconhecida(t *testing.T) {
	_, err := domain.NewMoneyFromString("-1.00", domain.CurrencyBRL)
	assert.Error(t, err)

	_, err = domain.NewMoneyFromString("10.00", "XYZ")
	assert.Error(t, err)

	_, err = domain.NewMoneyFromString("abc", domain.CurrencyBRL)
	assert.Error(t, err)
}

// TestMoney_Aritmetica testa soma, subtração e multiplicação.
func TestMoney_Aritmetica(t *testing.T) {
	a := mustMoney(t, "100.00", domain.CurrencyBRL)
	b := mustMoney(t, "40.50", domain.CurrencyBRL)

	sum, err := a.Add(b)
	assert.NoError(t, err)
	assert.Equal(t, "140.50", sum.Amount().StringFixed(2))

	diff, err := a.Subtract(b)
	assert.NoError(t, err)
	assert.Equal(t, "59.50", diff.Amount().StringFixed(2))

	// Subtração que resultaria em negativo é rejeitada.
	_, err = b.Subtract(a)
	assert.Error(t, err)

	double, err := a.Multiply(decimal.NewFromInt(2))
	assert.NoError(t, err)
	assert.Equal(t, "200.00", double.Amount().StringFixed(2))
}

// TestMoney_MoedasDiferentes testa que operações entre moedas falham.
func TestMoney_MoedasDiferentes(t *testing.T) {
	brl := mustMoney(t, "10.00", domain.CurrencyBRL)
	usd := mustMoney(t, "10.00", domain.CurrencyUSD)

	_, err := brl.Add(usd)
	assert.Error(t, err)

	_, err = brl.Subtract(usd)
	assert.Error(t, err)

	_, err = brl.LessThan(usd)
	assert.Error(t, err)

	assert.False(t, brl.Equals(usd))
}

// TestMoney_ApplyDiscount testa o desconto percentual com arredondamento.
func TestMoney_ApplyDiscount(t *testing.T) {
	price := mustMoney(t, "100.00", domain.CurrencyBRL)

	discounted, err := price.ApplyDiscount(decimal.NewFromInt(10))
	assert.NoError(t, err)
	assert.Equal(t, "90.00", discounted.Amount().StringFixed(2))

	// 100% zera o preço.
	free, err := price.ApplyDiscount(decimal.NewFromInt(100))
	assert.NoError(t, err)
	assert.True(t, free.IsZero())

	// Fora de [0, 100] é rejeitado.
	_, err = price.ApplyDiscount(decimal.NewFromInt(150))
	assert.Error(t, err)

	_, err = price.ApplyDiscount(decimal.NewFromInt(-5))
	assert.Error(t, err)
}

// TestMoney_Formatted testa o símbolo por moeda.
func TestMoney_Formatted(t *testing.T) {
	assert.Equal(t, "R$ 1500.00", mustMoney(t, "1500", domain.CurrencyBRL).Formatted())
	assert.Equal(t, "$ 9.99", mustMoney(t, "9.99", domain.CurrencyUSD).Formatted())
}
