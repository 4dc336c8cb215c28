package decimal

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("should parse amounts with up to four fractional digits", func(t *testing.T) {
		cases := map[string]int64{
			"1":       10_000,
			"1.0":     10_000,
			"1.5":     15_000,
			"0.0001":  1,
			"2.7182":  27_182,
			"-0.25":   -2_500,
			" 3.14 ":  31_400,
			"100.000": 1_000_000,
		}
		for in, want := range cases {
			got, err := Parse(in)
			require.NoError(t, err, in)
			assert.Equal(t, want, got.Units(), in)
		}
	})

	t.Run("should reject non-numeric text", func(t *testing.T) {
		for _, in := range []string{"", "  ", "abc", "1,5", "1.2.3", "--1", "1e2", "1E-2", ".5", "+1", "+.5", "1.", "-", "0x10"} {
			_, err := Parse(in)
			assert.ErrorIs(t, err, ErrInvalidFormat, in)
		}
	})

	t.Run("should reject a fifth fractional digit", func(t *testing.T) {
		_, err := Parse("1.00001")
		assert.ErrorIs(t, err, ErrTooManyFractionalDigits)

		_, err = Parse("1.50000")
		assert.ErrorIs(t, err, ErrTooManyFractionalDigits, "trailing zeros still count as digits")
	})

	t.Run("should reject values outside the int64 range", func(t *testing.T) {
		_, err := Parse("922337203685478")
		assert.ErrorIs(t, err, ErrOverflow)
	})

	t.Run("should accept the largest representable value", func(t *testing.T) {
		a, err := Parse("922337203685477.5807")
		require.NoError(t, err)
		assert.Equal(t, int64(math.MaxInt64), a.Units())
	})
}

func TestString(t *testing.T) {
	cases := map[int64]string{
		0:       "0.0000",
		1:       "0.0001",
		15_000:  "1.5000",
		-2_500:  "-0.2500",
		-10_000: "-1.0000",
		123_456: "12.3456",
	}
	for units, want := range cases {
		assert.Equal(t, want, FromUnits(units).String())
	}
}

func TestRoundTrip(t *testing.T) {
	for _, in := range []string{"0.0000", "1.5000", "-0.2500", "98765.4321"} {
		a := MustParse(in)
		assert.Equal(t, in, a.String())
	}
}

func TestArithmetic(t *testing.T) {
	t.Run("should add and subtract exactly", func(t *testing.T) {
		sum, err := MustParse("0.1").Add(MustParse("0.2"))
		require.NoError(t, err)
		assert.Equal(t, "0.3000", sum.String())

		diff, err := MustParse("1.0").Sub(MustParse("1.5"))
		require.NoError(t, err)
		assert.Equal(t, "-0.5000", diff.String())
		assert.True(t, diff.IsNegative())
	})

	t.Run("should detect overflow instead of wrapping", func(t *testing.T) {
		maxAmount := FromUnits(math.MaxInt64)
		minAmount := FromUnits(math.MinInt64)

		_, err := maxAmount.Add(FromUnits(1))
		assert.ErrorIs(t, err, ErrOverflow)

		_, err = minAmount.Add(FromUnits(-1))
		assert.ErrorIs(t, err, ErrOverflow)

		_, err = minAmount.Sub(FromUnits(1))
		assert.ErrorIs(t, err, ErrOverflow)

		_, err = FromUnits(0).Sub(minAmount)
		assert.ErrorIs(t, err, ErrOverflow)

		_, err = FromUnits(-1).Sub(minAmount)
		assert.NoError(t, err)
	})

	t.Run("should compare amounts", func(t *testing.T) {
		a, b := MustParse("1.5"), MustParse("2")
		assert.Equal(t, -1, a.Cmp(b))
		assert.Equal(t, 1, b.Cmp(a))
		assert.Equal(t, 0, a.Cmp(MustParse("1.5000")))
		assert.True(t, a.LessThan(b))
		assert.True(t, Zero.IsZero())
	})
}

func TestFromInt(t *testing.T) {
	a, err := FromInt(42)
	require.NoError(t, err)
	assert.Equal(t, "42.0000", a.String())

	_, err = FromInt(math.MaxInt64 / 1000)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestJSON(t *testing.T) {
	type payload struct {
		Amount Amount `json:"amount"`
	}

	out, err := json.Marshal(payload{Amount: MustParse("2.5")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"2.5000"}`, string(out))

	var in payload
	require.NoError(t, json.Unmarshal([]byte(`{"amount":"-7.125"}`), &in))
	assert.Equal(t, int64(-71_250), in.Amount.Units())

	assert.Error(t, json.Unmarshal([]byte(`{"amount":"1.23456"}`), &in))
}
