package amount_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/fare-ledger/internal/amount"
	"github.com/pkordes/fare-ledger/internal/domain"
)

// ---- Parse -----------------------------------------------------------------

func TestParse_Valid(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"12", 1200},
		{"12,5", 1250},
		{"12.5", 1250},
		{"12,50", 1250},
		{"0,01", 1},
		{"0.99", 99},
		{"12,", 1200},
		{" 7,05 ", 705},
		{"0", 0},
		{"92233720368547758,07", 9223372036854775807},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := amount.Parse(tc.in)

			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tc.want, *got)
		})
	}
}

func TestParse_EmptyMeansUnset(t *testing.T) {
	for _, in := range []string{"", "   "} {
		got, err := amount.Parse(in)

		require.NoError(t, err)
		assert.Nil(t, got)
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{
		"12.345", "1,001", "abc", "12a", "-5", "+5", "1.2.3", "1,2,3", ".5", ",5", "1 000", "1e3",
		"92233720368547758,08", "100000000000000000000000000000",
	} {
		t.Run(in, func(t *testing.T) {
			got, err := amount.Parse(in)

			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Nil(t, got)
		})
	}
}

// ---- Format ----------------------------------------------------------------

func TestFormat(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{1200, "12"},
		{1250, "12,50"},
		{5, "0,05"},
		{123456789, "1234567,89"},
		{-1250, "-12,50"},
		{-100, "-1"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, amount.Format(tc.in), "Format(%d)", tc.in)
	}
}

func TestParseThenFormat_ReproducesValue(t *testing.T) {
	for _, in := range []string{"12,5", "12.50", "3", "0,07", "19,99"} {
		v, err := amount.Parse(in)
		require.NoError(t, err)

		back, err := amount.Parse(amount.Format(*v))
		require.NoError(t, err)
		assert.Equal(t, *v, *back, "round trip of %q", in)
	}
	assert.Equal(t, "12,50", amount.Format(amount.MustParse("12,5")))
}

func TestCodec_FormatPrice(t *testing.T) {
	c := amount.NewCodec("€")

	assert.Equal(t, "49 €", c.FormatPrice(4900))
	assert.Equal(t, "12,50 €", c.FormatPrice(1250))
	assert.Equal(t, "12,50", amount.NewCodec("").FormatPrice(1250))
}

// ---- Field -----------------------------------------------------------------

func TestField_InvalidInputKeepsPreviousValue(t *testing.T) {
	f := amount.NewField(nil)

	require.True(t, f.Set("4,20"))
	require.NotNil(t, f.Value())
	assert.Equal(t, int64(420), *f.Value())

	assert.False(t, f.Set("4,205"))
	assert.Equal(t, int64(420), *f.Value())

	assert.False(t, f.Set("four"))
	assert.Equal(t, int64(420), *f.Value())

	assert.True(t, f.Set(""))
	assert.Nil(t, f.Value())
}
