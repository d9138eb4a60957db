// Package normalize converts user-typed field values into the canonical
// forms the rest of the pipeline works with: ISO-8601 dates, exact decimal
// amounts and whitespace-free uppercase IBANs.
//
// Every parser tries an ordered list of candidate formats and stops at the
// first success; the lists are package data so new formats are a one-line
// addition.
package normalize

import (
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	apperrors "github.com/tlf-hub/sdd-xml-generator/pkg/errors"
)

// DatePolicy controls what happens when no date layout matches
type DatePolicy int

const (
	// DateReject fails the batch on an unparseable date (the default)
	DateReject DatePolicy = iota
	// DateDefaultToday substitutes the current date, matching the
	// lenient behavior some banks' upload sheets rely on
	DateDefaultToday
)

// ISODate is the output layout for every normalized date
const ISODate = "2006-01-02"

// dateLayouts are tried in order; first successful parse wins.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"02.01.2006",
	"2006/01/02",
	"02/01/06",
	"02-01-06",
	"02.01.06",
}

// Date parses a date written in any supported layout and returns it as an
// ISO-8601 string. With DateDefaultToday an unparseable value becomes the
// current date instead of an error.
func Date(raw string, policy DatePolicy) (string, error) {
	return DateAt(raw, policy, time.Now())
}

// DateAt is Date with an explicit clock, so reruns with a fixed timestamp
// stay deterministic.
func DateAt(raw string, policy DatePolicy, now time.Time) (string, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(ISODate), nil
		}
	}

	if policy == DateDefaultToday {
		return now.Format(ISODate), nil
	}
	return "", apperrors.ValidationError(apperrors.CodeInvalidDate, "date", raw, nil)
}

// Amount parses a user-typed amount with either comma or point decimals
// into an exact decimal. Unparseable input is always an error; there is no
// silent zero fallback.
func Amount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")

	if s == "" {
		return decimal.Zero, apperrors.ValidationError(apperrors.CodeInvalidAmount, "amount", raw, nil)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, apperrors.ValidationError(apperrors.CodeInvalidAmount, "amount", raw, err)
	}
	return d, nil
}

// AmountString normalizes an amount to a fixed two-decimal string
func AmountString(raw string) (string, error) {
	d, err := Amount(raw)
	if err != nil {
		return "", err
	}
	return d.StringFixed(2), nil
}

// IBAN uppercases an IBAN and strips every whitespace character. It does
// not validate the checksum; the receiving bank does.
func IBAN(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}
