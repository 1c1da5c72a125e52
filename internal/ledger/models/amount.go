package models

import (
	"bytes"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// numberLiteral is the JSON number grammar.
var numberLiteral = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// Amount is a transfer amount held as its canonical text.
//
// The signed message embeds the amount as text, so the rendering is part of
// the signature contract. Integer literals stay integers ("100") and anything
// with a fraction or exponent is rendered as a float ("100.0", "1e+16").
// A signer that renders 100 where the ledger stores 100.0 produces a signature
// that will never verify.
type Amount struct {
	text string
}

// ParseAmount canonicalizes a JSON number literal.
func ParseAmount(literal string) (Amount, error) {
	literal = strings.TrimSpace(literal)
	if !numberLiteral.MatchString(literal) {
		return Amount{}, fmt.Errorf("amount %q is not a number", literal)
	}
	if !strings.ContainsAny(literal, ".eE") {
		n, ok := new(big.Int).SetString(literal, 10)
		if !ok {
			return Amount{}, fmt.Errorf("amount %q is not an integer", literal)
		}
		return Amount{text: n.String()}, nil
	}
	f, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return Amount{}, fmt.Errorf("amount %q: %w", literal, err)
	}
	return AmountFromFloat(f)
}

// AmountFromFloat renders f with the float rule: shortest round-trip digits,
// fixed notation with a trailing ".0" when the decimal exponent is in
// [-4, 16), scientific notation otherwise.
func AmountFromFloat(f float64) (Amount, error) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return Amount{}, fmt.Errorf("amount must be finite")
	}
	return Amount{text: formatFloat(f)}, nil
}

// AmountFromInt renders an integer amount.
func AmountFromInt(i int64) Amount {
	return Amount{text: strconv.FormatInt(i, 10)}
}

func formatFloat(f float64) string {
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	idx := strings.IndexByte(sci, 'e')
	exp, _ := strconv.Atoi(sci[idx+1:])
	if exp < -4 || exp >= 16 {
		return sci
	}
	fixed := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(fixed, ".") {
		fixed += ".0"
	}
	return fixed
}

// String returns the canonical text used in signed messages.
func (a Amount) String() string { return a.text }

// IsZero reports whether the amount is absent. A literal 0 is present.
func (a Amount) IsZero() bool { return a.text == "" }

// Decimal returns the exact decimal value for arithmetic.
func (a Amount) Decimal() (decimal.Decimal, error) {
	if a.IsZero() {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(a.text)
}

// MarshalJSON writes the canonical text as a bare JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	if a.IsZero() {
		return []byte("null"), nil
	}
	return []byte(a.text), nil
}

// UnmarshalJSON accepts a JSON number. Strings are rejected so the rendering
// of the number cannot drift between the client and the ledger.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = Amount{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		return fmt.Errorf("amount must be a JSON number, got string")
	}
	parsed, err := ParseAmount(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
