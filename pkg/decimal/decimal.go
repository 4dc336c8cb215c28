package decimal

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits carried by an Amount
const Scale = 4

const unitsPerWhole = 10_000

var (
	ErrInvalidFormat           = errors.New("invalid amount format")
	ErrTooManyFractionalDigits = errors.New("amount has more than 4 fractional digits")
	ErrOverflow                = errors.New("amount overflow")
)

// Amount is a signed fixed-point monetary value counted in ten-thousandths
type Amount struct {
	units int64
}

// Zero is the zero amount
var Zero = Amount{}

// FromUnits creates an Amount from a raw count of ten-thousandths
func FromUnits(units int64) Amount {
	return Amount{units: units}
}

// FromInt creates an Amount from a whole number
func FromInt(whole int64) (Amount, error) {
	if whole > math.MaxInt64/unitsPerWhole || whole < math.MinInt64/unitsPerWhole {
		return Amount{}, ErrOverflow
	}
	return Amount{units: whole * unitsPerWhole}, nil
}

// Parse parses decimal text such as "1.5" or "-0.0001".
// At most 4 fractional digits are accepted; trailing zeros count.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, fmt.Errorf("%w: empty", ErrInvalidFormat)
	}
	if !isPlainDecimal(s) {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	if d.Exponent() < -Scale {
		return Amount{}, fmt.Errorf("%w: %q", ErrTooManyFractionalDigits, s)
	}

	scaled := d.Shift(Scale).BigInt()
	if !scaled.IsInt64() {
		return Amount{}, fmt.Errorf("%w: %q", ErrOverflow, s)
	}
	return Amount{units: scaled.Int64()}, nil
}

// isPlainDecimal reports whether s has the form -?digits(.digits)?
func isPlainDecimal(s string) bool {
	if s[0] == '-' {
		s = s[1:]
	}
	intPart, frac, hasDot := strings.Cut(s, ".")
	if !allDigits(intPart) {
		return false
	}
	return !hasDot || allDigits(frac)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// MustParse is like Parse but panics on error. Intended for fixtures.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Units returns the raw count of ten-thousandths
func (a Amount) Units() int64 {
	return a.units
}

// Add adds two amounts
func (a Amount) Add(other Amount) (Amount, error) {
	sum := a.units + other.units
	if (other.units > 0 && sum < a.units) || (other.units < 0 && sum > a.units) {
		return Amount{}, ErrOverflow
	}
	return Amount{units: sum}, nil
}

// Sub subtracts other from a
func (a Amount) Sub(other Amount) (Amount, error) {
	diff := a.units - other.units
	if (other.units > 0 && diff > a.units) || (other.units < 0 && diff < a.units) {
		return Amount{}, ErrOverflow
	}
	return Amount{units: diff}, nil
}

// Cmp compares two amounts, returning -1, 0 or +1
func (a Amount) Cmp(other Amount) int {
	switch {
	case a.units < other.units:
		return -1
	case a.units > other.units:
		return 1
	default:
		return 0
	}
}

// LessThan reports whether a < other
func (a Amount) LessThan(other Amount) bool {
	return a.units < other.units
}

// IsZero checks if amount is zero
func (a Amount) IsZero() bool {
	return a.units == 0
}

// IsNegative checks if amount is below zero
func (a Amount) IsNegative() bool {
	return a.units < 0
}

// Decimal returns the amount as an arbitrary-precision decimal
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(a.units, -Scale)
}

// String returns the amount with exactly 4 fractional digits
func (a Amount) String() string {
	return a.Decimal().StringFixed(Scale)
}

// MarshalText implements encoding.TextMarshaler
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (a *Amount) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
