package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	EGP Currency = "EGP" // Egyptian Pound (default)
	USD Currency = "USD" // US Dollar
	EUR Currency = "EUR" // Euro
	SAR Currency = "SAR" // Saudi Riyal
	AED Currency = "AED" // UAE Dirham
)

// DefaultCurrency is the default currency for the system
const DefaultCurrency = EGP

// Precision is the number of decimal places used for all monetary amounts.
// Every stored amount is fixed-point at this precision; binary floats are
// never used for money.
const Precision int32 = 4

// Money is a value object representing monetary amounts.
// It is immutable - all operations return new Money instances.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates a new Money with the specified amount and currency
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, errors.New("currency cannot be empty")
	}
	return Money{
		amount:   amount,
		currency: currency,
	}, nil
}

// NewMoneyFromString creates Money from a string representation
func NewMoneyFromString(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string: %w", err)
	}
	return NewMoney(d, currency)
}

// NewDefaultMoney creates Money in the default currency
func NewDefaultMoney(amount decimal.Decimal) Money {
	return Money{amount: amount, currency: DefaultCurrency}
}

// NewDefaultMoneyFromString creates Money in the default currency from string
func NewDefaultMoneyFromString(amount string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string: %w", err)
	}
	return Money{amount: d, currency: DefaultCurrency}, nil
}

// Zero returns a zero-value Money in the specified currency
func Zero(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// ZeroDefault returns a zero-value Money in the default currency
func ZeroDefault() Money {
	return Zero(DefaultCurrency)
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive returns true if the amount is positive
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// IsNegative returns true if the amount is negative
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// Add returns a new Money with the sum of both amounts.
// Returns error if currencies don't match.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("cannot add money with different currencies: %s and %s", m.currency, other.currency)
	}
	return Money{
		amount:   m.amount.Add(other.amount),
		currency: m.currency,
	}, nil
}

// MustAdd adds two Money values, panics if currencies don't match
func (m Money) MustAdd(other Money) Money {
	result, err := m.Add(other)
	if err != nil {
		panic(err)
	}
	return result
}

// Subtract returns a new Money with the difference.
// Returns error if currencies don't match.
func (m Money) Subtract(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("cannot subtract money with different currencies: %s and %s", m.currency, other.currency)
	}
	return Money{
		amount:   m.amount.Sub(other.amount),
		currency: m.currency,
	}, nil
}

// MustSubtract subtracts two Money values, panics if currencies don't match
func (m Money) MustSubtract(other Money) Money {
	result, err := m.Subtract(other)
	if err != nil {
		panic(err)
	}
	return result
}

// Multiply returns a new Money multiplied by the given factor
func (m Money) Multiply(factor decimal.Decimal) Money {
	return Money{
		amount:   m.amount.Mul(factor),
		currency: m.currency,
	}
}

// Divide returns a new Money divided by the given divisor.
// Returns error if divisor is zero.
func (m Money) Divide(divisor decimal.Decimal) (Money, error) {
	if divisor.IsZero() {
		return Money{}, errors.New("cannot divide by zero")
	}
	return Money{
		amount:   m.amount.Div(divisor),
		currency: m.currency,
	}, nil
}

// Negate returns a new Money with the sign reversed
func (m Money) Negate() Money {
	return Money{
		amount:   m.amount.Neg(),
		currency: m.currency,
	}
}

// Abs returns a new Money with the absolute value
func (m Money) Abs() Money {
	return Money{
		amount:   m.amount.Abs(),
		currency: m.currency,
	}
}

// Round returns a new Money rounded to the system precision
func (m Money) Round() Money {
	return Money{
		amount:   m.amount.Round(Precision),
		currency: m.currency,
	}
}

// Truncate returns a new Money truncated to the system precision
func (m Money) Truncate() Money {
	return Money{
		amount:   m.amount.Truncate(Precision),
		currency: m.currency,
	}
}

// Equals returns true if both Money values are equal (same amount and currency)
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// LessThan returns true if this Money is less than the other.
// Returns error if currencies don't match.
func (m Money) LessThan(other Money) (bool, error) {
	if m.currency != other.currency {
		return false, fmt.Errorf("cannot compare money with different currencies: %s and %s", m.currency, other.currency)
	}
	return m.amount.LessThan(other.amount), nil
}

// GreaterThan returns true if this Money is greater than the other
func (m Money) GreaterThan(other Money) (bool, error) {
	if m.currency != other.currency {
		return false, fmt.Errorf("cannot compare money with different currencies: %s and %s", m.currency, other.currency)
	}
	return m.amount.GreaterThan(other.amount), nil
}

// String returns a string representation of the Money
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(Precision), m.currency)
}

// Float64 returns the amount as a float64 (may lose precision)
func (m Money) Float64() float64 {
	f, _ := m.amount.Float64()
	return f
}

// MarshalJSON implements json.Marshaler
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   string   `json:"amount"`
		Currency Currency `json:"currency"`
	}{
		Amount:   m.amount.String(),
		Currency: m.currency,
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (m *Money) UnmarshalJSON(data []byte) error {
	var v struct {
		Amount   string   `json:"amount"`
		Currency Currency `json:"currency"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	amount, err := decimal.NewFromString(v.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	m.amount = amount
	m.currency = v.Currency
	return nil
}

// Value implements driver.Valuer for database storage.
// Stores as a numeric value (amount only).
func (m Money) Value() (driver.Value, error) {
	return m.amount.String(), nil
}

// Scan implements sql.Scanner for database retrieval.
// Scans only the amount; currency defaults to DefaultCurrency if not set.
func (m *Money) Scan(value any) error {
	if value == nil {
		m.amount = decimal.Zero
		m.currency = DefaultCurrency
		return nil
	}

	var strVal string
	switch v := value.(type) {
	case string:
		strVal = v
	case []byte:
		strVal = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Money", value)
	}

	amount, err := decimal.NewFromString(strVal)
	if err != nil {
		return fmt.Errorf("invalid decimal value: %w", err)
	}
	m.amount = amount
	if m.currency == "" {
		m.currency = DefaultCurrency
	}
	return nil
}

// Split divides money into n equal parts at the system precision.
// All parts except the last are the amount truncated to 4 decimal places;
// the last part absorbs the rounding remainder so the parts sum to the
// original amount exactly (e.g. 1000/3 -> 333.3333, 333.3333, 333.3334).
func (m Money) Split(parts int) ([]Money, error) {
	if parts <= 0 {
		return nil, errors.New("parts must be positive")
	}
	if parts == 1 {
		return []Money{m}, nil
	}

	base := m.amount.Div(decimal.NewFromInt(int64(parts))).Truncate(Precision)
	result := make([]Money, parts)
	allocated := decimal.Zero
	for i := 0; i < parts-1; i++ {
		result[i] = Money{amount: base, currency: m.currency}
		allocated = allocated.Add(base)
	}
	result[parts-1] = Money{amount: m.amount.Sub(allocated), currency: m.currency}

	return result, nil
}

// SplitByWeights divides money proportionally by the given weights at the
// system precision. The last non-zero share absorbs the rounding remainder
// so the shares sum to the original amount exactly.
func (m Money) SplitByWeights(weights []decimal.Decimal) ([]Money, error) {
	if len(weights) == 0 {
		return nil, errors.New("weights cannot be empty")
	}
	totalWeight := decimal.Zero
	for _, w := range weights {
		if w.IsNegative() {
			return nil, errors.New("weights cannot be negative")
		}
		totalWeight = totalWeight.Add(w)
	}
	if totalWeight.IsZero() {
		return nil, errors.New("total weight must be positive")
	}

	// A zero weight must stay a zero share, so the remainder goes to the
	// last weighted entry rather than blindly to the last index.
	remainderIdx := 0
	result := make([]Money, len(weights))
	allocated := decimal.Zero
	for i, w := range weights {
		if w.IsPositive() {
			remainderIdx = i
		}
		share := m.amount.Mul(w).Div(totalWeight).Truncate(Precision)
		result[i] = Money{amount: share, currency: m.currency}
		allocated = allocated.Add(share)
	}
	result[remainderIdx].amount = result[remainderIdx].amount.Add(m.amount.Sub(allocated))

	return result, nil
}

// CalculatePercentage returns the percentage of this Money
func (m Money) CalculatePercentage(percent decimal.Decimal) Money {
	return Money{
		amount:   m.amount.Mul(percent).Div(decimal.NewFromInt(100)),
		currency: m.currency,
	}
}
