package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromInt(100), USD)
		require.NoError(t, err)
		assert.True(t, m.Amount().Equal(decimal.NewFromInt(100)))
		assert.Equal(t, USD, m.Currency())
	})

	t.Run("rejects empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(100), "")
		assert.Error(t, err)
	})
}

func TestMoney_Arithmetic(t *testing.T) {
	a := NewMoneyUSD(decimal.NewFromFloat(10.50))
	b := NewMoneyUSD(decimal.NewFromFloat(4.25))

	t.Run("add", func(t *testing.T) {
		sum, err := a.Add(b)
		require.NoError(t, err)
		assert.Equal(t, "14.75", sum.StringFixed(2))
	})

	t.Run("subtract", func(t *testing.T) {
		diff, err := a.Subtract(b)
		require.NoError(t, err)
		assert.Equal(t, "6.25", diff.StringFixed(2))
	})

	t.Run("rejects mixed currencies", func(t *testing.T) {
		eur := Zero(EUR)
		_, err := a.Add(eur)
		assert.Error(t, err)
		_, err = a.Subtract(eur)
		assert.Error(t, err)
	})

	t.Run("multiply and negate", func(t *testing.T) {
		doubled := a.Multiply(decimal.NewFromInt(2))
		assert.Equal(t, "21.00", doubled.StringFixed(2))
		neg := a.Negate()
		assert.True(t, neg.IsNegative())
	})
}

func TestMoney_Comparisons(t *testing.T) {
	small := NewMoneyUSD(decimal.NewFromInt(5))
	large := NewMoneyUSD(decimal.NewFromInt(50))

	less, err := small.LessThan(large)
	require.NoError(t, err)
	assert.True(t, less)

	gte, err := large.GreaterThanOrEqual(small)
	require.NoError(t, err)
	assert.True(t, gte)

	assert.True(t, ZeroUSD().IsZero())
	assert.True(t, large.Equals(NewMoneyUSD(decimal.NewFromInt(50))))
}

func TestMoney_JSON(t *testing.T) {
	m := NewMoneyUSD(decimal.NewFromFloat(99.99))

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"99.99","currency":"USD"}`, string(data))

	var decoded Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, m.Equals(decoded))
}

func TestMoney_Scan(t *testing.T) {
	var m Money
	require.NoError(t, m.Scan("123.45"))
	assert.Equal(t, "123.45", m.StringFixed(2))
	assert.Equal(t, DefaultCurrency, m.Currency())

	require.NoError(t, m.Scan(nil))
	assert.True(t, m.IsZero())

	assert.Error(t, m.Scan(42))
}
