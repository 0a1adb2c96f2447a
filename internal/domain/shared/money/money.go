package money

import (
	"strings"

	"github.com/shopspring/decimal"

	"buckler/internal/domain/shared/errs"
)

var (
	ErrInvalidCurrency  = errs.New(errs.ErrValidation, "money: invalid currency code")
	ErrCurrencyMismatch = errs.New(errs.ErrValidation, "money: currency mismatch")
	ErrInvalidAmount    = errs.New(errs.ErrValidation, "money: invalid amount")
)

// Scale is the number of fractional digits kept after rounding.
const Scale = 2

// Money is a decimal amount in a single ISO currency. Arithmetic is exact; only
// Round and DivInt drop precision.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

// New constructs a Money value validating minimal invariants.
func New(amount decimal.Decimal, currency string) (Money, error) {
	code, err := normalizeCurrency(currency)
	if err != nil {
		return Money{}, err
	}
	return Money{Amount: amount, Currency: code}, nil
}

// FromInt builds a whole-unit amount.
func FromInt(amount int64, currency string) (Money, error) {
	return New(decimal.NewFromInt(amount), currency)
}

// Parse reads a decimal string such as "5000" or "129.95".
func Parse(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return Money{}, errs.Wrapf(ErrInvalidAmount, "%q", amount)
	}
	return New(d, currency)
}

// MustParse is Parse that panics; useful in tests and fixtures.
func MustParse(amount, currency string) Money {
	m, err := Parse(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero amount in the given currency.
func Zero(currency string) Money {
	return Money{Amount: decimal.Zero, Currency: strings.ToUpper(currency)}
}

func (m Money) Add(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

func (m Money) Sub(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount.Sub(other.Amount), Currency: m.Currency}, nil
}

// Mul multiplies by a whole factor such as nights or participants.
func (m Money) Mul(times int64) Money {
	return Money{Amount: m.Amount.Mul(decimal.NewFromInt(times)), Currency: m.Currency}
}

// MulRate multiplies by a fractional rate without rounding.
func (m Money) MulRate(rate decimal.Decimal) Money {
	return Money{Amount: m.Amount.Mul(rate), Currency: m.Currency}
}

// DivInt divides by n and rounds the quotient. Dividing by zero yields zero.
func (m Money) DivInt(n int64) Money {
	if n == 0 {
		return Zero(m.Currency)
	}
	return Money{Amount: m.Amount.Div(decimal.NewFromInt(n)), Currency: m.Currency}.Round()
}

// Round rounds half away from zero to Scale digits, which is half-up for the
// non-negative amounts the engine produces.
func (m Money) Round() Money {
	return Money{Amount: m.Amount.Round(Scale), Currency: m.Currency}
}

func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

func (m Money) IsNegative() bool {
	return m.Amount.IsNegative()
}

// Equal compares amount numerically, so 10 and 10.00 are equal.
func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

// Cmp compares amounts of the same currency.
func (m Money) Cmp(other Money) (int, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return 0, err
	}
	return m.Amount.Cmp(other.Amount), nil
}

// String renders "15000.00 KES".
func (m Money) String() string {
	return m.Amount.StringFixed(Scale) + " " + m.Currency
}

func (m Money) ensureSameCurrency(other Money) error {
	if m.Currency == "" || other.Currency == "" {
		return ErrInvalidCurrency
	}
	if m.Currency != other.Currency {
		return errs.Wrapf(ErrCurrencyMismatch, "%s vs %s", m.Currency, other.Currency)
	}
	return nil
}

func normalizeCurrency(currency string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if len(code) != 3 {
		return "", ErrInvalidCurrency
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", ErrInvalidCurrency
		}
	}
	return code, nil
}
