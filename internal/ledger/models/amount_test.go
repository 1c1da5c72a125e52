package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		literal string
		want    string
	}{
		{"100", "100"},
		{"100.0", "100.0"},
		{"100.50", "100.5"},
		{"0", "0"},
		{"-0", "0"},
		{"0.1", "0.1"},
		{"1e2", "100.0"},
		{"1E16", "1e+16"},
		{"1e15", "1000000000000000.0"},
		{"0.0001", "0.0001"},
		{"0.00001", "1e-05"},
		{"-2.5", "-2.5"},
		{"123456789012345678901234567890", "123456789012345678901234567890"},
	}
	for _, tc := range cases {
		t.Run(tc.literal, func(t *testing.T) {
			got, err := ParseAmount(tc.literal)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.String())
		})
	}
}

func TestParseAmountRejectsNonNumbers(t *testing.T) {
	for _, literal := range []string{"", "abc", "1_000", "0x10", "Inf", "NaN", "01", "1.", ".5"} {
		_, err := ParseAmount(literal)
		assert.Error(t, err, literal)
	}
}

func TestCanonicalTextIsStable(t *testing.T) {
	for _, literal := range []string{"100", "100.0", "1e+16", "1e-05", "-0.0", "3.14"} {
		first, err := ParseAmount(literal)
		require.NoError(t, err)
		second, err := ParseAmount(first.String())
		require.NoError(t, err)
		assert.Equal(t, first.String(), second.String())
	}
}

func TestAmountFromFloat(t *testing.T) {
	a, err := AmountFromFloat(100)
	require.NoError(t, err)
	assert.Equal(t, "100.0", a.String())
	assert.NotEqual(t, AmountFromInt(100).String(), a.String(), "integer and float renderings differ")

	_, err = AmountFromFloat(1 / zero())
	assert.Error(t, err)
}

func zero() float64 { return 0 }

func TestAmountJSON(t *testing.T) {
	var req AppendTransactionRequest
	require.NoError(t, json.Unmarshal([]byte(`{"sender":"alice","recipient":"bob","amount":100.0}`), &req))
	assert.Equal(t, "100.0", req.Amount.String())

	out, err := json.Marshal(req.Amount)
	require.NoError(t, err)
	assert.Equal(t, "100.0", string(out))

	err = json.Unmarshal([]byte(`{"amount":"100"}`), &req)
	assert.Error(t, err, "string amounts are rejected")

	var missing AppendTransactionRequest
	require.NoError(t, json.Unmarshal([]byte(`{"sender":"alice"}`), &missing))
	assert.True(t, missing.Amount.IsZero())
}

func TestAmountDecimal(t *testing.T) {
	a, err := ParseAmount("0.1")
	require.NoError(t, err)
	b, err := ParseAmount("0.2")
	require.NoError(t, err)
	da, err := a.Decimal()
	require.NoError(t, err)
	db, err := b.Decimal()
	require.NoError(t, err)
	assert.Equal(t, "0.3", da.Add(db).String())
}

func TestAppendTransactionRequestValidate(t *testing.T) {
	amount := AmountFromInt(10)
	assert.NoError(t, AppendTransactionRequest{Sender: "alice", Recipient: "bob", Amount: amount}.Validate())
	assert.Error(t, AppendTransactionRequest{Recipient: "bob", Amount: amount}.Validate())
	assert.Error(t, AppendTransactionRequest{Sender: "alice", Recipient: "bob"}.Validate())
	assert.Error(t, AppendTransactionRequest{Sender: "al|ice", Recipient: "bob", Amount: amount}.Validate())
}
