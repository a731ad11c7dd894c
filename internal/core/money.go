// Package core holds the payment-request domain: money in integer centavos,
// calendar dates, the installment schedule and the submission rules.
//
// Amounts live as int64 centavos everywhere inside the service. Conversions
// to and from the decimal representations used by the spreadsheet ledger and
// the HTTP boundary happen in this file, nowhere else.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseDecimalToCents converts a decimal amount string to centavos with
// half-up rounding on the third decimal place. Both separator conventions are
// accepted: "1234.56", "1234,56" and the grouped form "1.234,56".
//
// Negative values are rejected; zero is allowed here because fetched records
// may legitimately carry an amount still being filled in. Submission-time
// positivity is enforced by Money.Validate.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	// Grouped pt-BR form: dots are thousands separators when a comma is
	// present. Otherwise a single dot is the decimal separator.
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafe = (1<<63 - 1) / 100
	if iv > maxSafe {
		return 0, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return iv*100 + fracCents, nil
}

// DigitsToCents parses a masked currency string by keeping digits only, the
// last two being centavos: "R$ 1.234,50" -> 123450. This mirrors the input
// mask on the form, where the user types raw digits.
func DigitsToCents(s string) (int64, error) {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, ErrInvalidAmount
	}
	return strconv.ParseInt(b.String(), 10, 64)
}

// FormatBRL renders centavos in the pt-BR display convention: "R$ 1.234,50".
func FormatBRL(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	reais := strconv.FormatInt(cents/100, 10)
	var grouped strings.Builder
	for i, digit := range reais {
		if i > 0 && (len(reais)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(digit)
	}
	out := "R$ " + grouped.String() + "," + pad2(cents%100)
	if neg {
		return "-" + out
	}
	return out
}

// DecimalString renders centavos as a plain decimal with a dot separator
// ("1234.50"), the encoding the spreadsheet ledger and the HTTP boundary use.
func (m Money) DecimalString() string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10) + "." + pad2(cents%100)
	if neg {
		return "-" + s
	}
	return s
}

// BRL renders the amount in display form.
func (m Money) BRL() string {
	return FormatBRL(m.Cents)
}

func pad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}
