package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1.00", true},
		{"1.0", "1.00", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"0", "0.00", true},
		{" 2.50 ", "2.50", true},
		{"-85", "-85.00", true},
		{"+15,76", "15.76", true},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"--1", "", false},
		{"+-5", "", false},
		{"-+5", "", false},
		{"++5", "", false},
		{"-", "", false},
		{"", "", false},
		{"1e3", "", false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
			assert.ErrorIs(t, err, ErrInvalidAmount)
		}
	}
}

func TestParseQuantity(t *testing.T) {
	q, err := ParseQuantity(" 10 ")
	require.NoError(t, err)
	assert.Equal(t, 10, q)

	for _, in := range []string{"0", "-3", "2.5", "x", ""} {
		_, err := ParseQuantity(in)
		assert.ErrorIs(t, err, ErrInvalidQuantity, "input %q", in)
	}
}

func TestMoneyArithmeticIsExact(t *testing.T) {
	// 0.1 + 0.2 drifts in float64; decimals must not.
	sum := MustParseMoney("0.1").Add(MustParseMoney("0.2"))
	assert.True(t, sum.Equal(MustParseMoney("0.3")))

	assert.Equal(t, "157.60", NewMoney(15.76).Mul(10).String())
	assert.Equal(t, int64(15760), NewMoney(157.6).Cents())
	assert.Equal(t, "-85.00", NewMoney(85).Neg().String())
	assert.True(t, NewMoney(-3).Abs().Equal(NewMoney(3)))
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(NewMoney(15.76))
	require.NoError(t, err)
	assert.Equal(t, "15.76", string(b))

	var m Money
	require.NoError(t, json.Unmarshal([]byte(`390`), &m))
	assert.True(t, m.Equal(NewMoney(390)))

	require.NoError(t, json.Unmarshal([]byte(`"9.27"`), &m))
	assert.True(t, m.Equal(NewMoney(9.27)))

	assert.Error(t, json.Unmarshal([]byte(`"nope"`), &m))
}

func TestMoneyDisplay(t *testing.T) {
	assert.Contains(t, NewMoney(1234.5).Display(), "R$")
}
