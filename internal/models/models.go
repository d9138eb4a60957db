// Package models defines the data types that flow through the SDD batch
// compilation pipeline, from raw CSV rows to the assembled collection batch.
package models

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	apperrors "github.com/tlf-hub/sdd-xml-generator/pkg/errors"
)

// SequenceType is the SDD sequence-type tag of a collection
type SequenceType string

const (
	// SequenceFirst marks the first collection of a recurring series
	SequenceFirst SequenceType = "FRST"
	// SequenceRecurring marks a recurring collection (the default)
	SequenceRecurring SequenceType = "RCUR"
	// SequenceOneOff marks a one-off collection
	SequenceOneOff SequenceType = "OOFF"
	// SequenceFinal marks the final collection of a series
	SequenceFinal SequenceType = "FNAL"
)

// String returns the string representation of SequenceType
func (s SequenceType) String() string {
	return string(s)
}

// IsValid checks if the sequence type is one of the four SDD tags
func (s SequenceType) IsValid() bool {
	switch s {
	case SequenceFirst, SequenceRecurring, SequenceOneOff, SequenceFinal:
		return true
	}
	return false
}

// ParseSequenceType parses a sequence type from free text. An empty value
// defaults to RCUR, anything else must be one of the four tags.
func ParseSequenceType(raw string) (SequenceType, error) {
	s := SequenceType(strings.ToUpper(strings.TrimSpace(raw)))
	if s == "" {
		return SequenceRecurring, nil
	}
	if !s.IsValid() {
		return "", apperrors.ValidationError(apperrors.CodeInvalidSequenceType, "tipo_sequenza", raw, nil)
	}
	return s, nil
}

// CompanyProfile holds the creditor-side data of a batch. It is immutable
// for the duration of one compilation.
type CompanyProfile struct {
	Name             string
	Address          string
	IBAN             string
	ClearingCode     string // ABI, zero-padded to 5 digits
	CreditorSchemeID string // ICS
	MandatePrefix    string
}

// Validate checks the company-level invariants: name, IBAN and creditor
// scheme identifier must be non-empty, and the account identifiers must
// start with a 2-letter country code.
func (cp *CompanyProfile) Validate() error {
	if strings.TrimSpace(cp.Name) == "" {
		return apperrors.ValidationError(apperrors.CodeMissingField, "nome_azienda", "", nil)
	}
	if strings.TrimSpace(cp.IBAN) == "" {
		return apperrors.ValidationError(apperrors.CodeMissingField, "iban", "", nil)
	}
	if strings.TrimSpace(cp.CreditorSchemeID) == "" {
		return apperrors.ValidationError(apperrors.CodeMissingField, "creditor_id", "", nil)
	}
	if !startsWithCountryCode(cp.IBAN) {
		return apperrors.ValidationError(apperrors.CodeInvalidConfig, "iban", cp.IBAN, nil).
			WithSuggestion("an IBAN starts with a 2-letter country code, e.g. IT60X0542811101000000123456")
	}
	if !startsWithCountryCode(cp.CreditorSchemeID) {
		return apperrors.ValidationError(apperrors.CodeInvalidConfig, "creditor_id", cp.CreditorSchemeID, nil).
			WithSuggestion("a creditor scheme identifier starts with a 2-letter country code, e.g. IT99ZZZ1234567890")
	}
	return nil
}

func startsWithCountryCode(s string) bool {
	if len(s) < 2 {
		return false
	}
	return unicode.IsLetter(rune(s[0])) && unicode.IsLetter(rune(s[1]))
}

// RawCollectionRow is one input row as typed by the user: amounts with
// comma or point decimals, dates in arbitrary formats. It only exists
// during ingestion.
type RawCollectionRow struct {
	Name          string
	Surname       string
	TaxCode       string
	Address       string
	PostalCode    string
	City          string
	Province      string
	Country       string
	IBAN          string
	BIC           string
	Amount        string
	Reference     string
	SignatureDate string
	DueDate       string
	MandateRef    string // RUM, caller-supplied mandate reference
	SequenceType  string

	// SourceRow is the 1-based row number in the input file, header
	// included, for error reporting.
	SourceRow int
}

// DebtorName joins the name parts the way they appear in the message
func (r *RawCollectionRow) DebtorName() string {
	if r.Surname == "" {
		return strings.TrimSpace(r.Name)
	}
	return strings.TrimSpace(r.Name + " " + r.Surname)
}

// NormalizedRow is a RawCollectionRow after normalization: ISO dates,
// exact decimal amount, cleaned IBAN, parsed sequence type.
type NormalizedRow struct {
	Name          string
	TaxCode       string
	Address       string
	PostalCode    string
	City          string
	Province      string
	Country       string
	IBAN          string
	BIC           string
	Amount        decimal.Decimal
	Reference     string
	SignatureDate string // ISO-8601 date
	DueDate       string // ISO-8601 date
	MandateRef    string
	SequenceType  SequenceType
	SourceRow     int
}

// DebtorTransaction is the aggregation unit: one collection per unique
// debtor IBAN within a batch.
type DebtorTransaction struct {
	Name          string
	TaxCode       string
	Address       string
	PostalCode    string
	City          string
	Province      string
	Country       string
	IBAN          string
	BIC           string
	Amount        decimal.Decimal
	References    []string // distinct remittance references, first-occurrence order
	SignatureDate string
	SequenceType  SequenceType

	MandateID  string
	EndToEndID string
	Sequence   int // 1-based position within the batch
}

// CollectionBatch is the complete message ready for assembly.
type CollectionBatch struct {
	Company        CompanyProfile
	MessageID      string
	PaymentInfoID  string
	CreationTime   time.Time
	CollectionDate string // ISO-8601 date
	SequenceType   SequenceType
	Transactions   []DebtorTransaction
}

// TransactionCount returns the number of transactions in the batch
func (b *CollectionBatch) TransactionCount() int {
	return len(b.Transactions)
}

// ControlSum returns the exact decimal sum of all transaction amounts
func (b *CollectionBatch) ControlSum() decimal.Decimal {
	sum := decimal.Zero
	for _, tx := range b.Transactions {
		sum = sum.Add(tx.Amount)
	}
	return sum
}

// CheckConsistency asserts the batch invariants the assembler relies on:
// every end-to-end id unique, every amount positive. Violations indicate
// a bug upstream, not bad user input.
func (b *CollectionBatch) CheckConsistency() error {
	seen := make(map[string]int, len(b.Transactions))
	for i, tx := range b.Transactions {
		if tx.EndToEndID == "" {
			return apperrors.ConsistencyError(apperrors.CodeDuplicateEndToEnd,
				fmt.Sprintf("transaction %d has no end-to-end id", i+1))
		}
		if prev, dup := seen[tx.EndToEndID]; dup {
			return apperrors.ConsistencyError(apperrors.CodeDuplicateEndToEnd,
				fmt.Sprintf("%s used by transactions %d and %d", tx.EndToEndID, prev+1, i+1))
		}
		seen[tx.EndToEndID] = i
		if !tx.Amount.IsPositive() {
			return apperrors.ConsistencyError(apperrors.CodeControlSumMismatch,
				fmt.Sprintf("transaction %d has non-positive amount %s", i+1, tx.Amount.String()))
		}
	}
	return nil
}

// String returns a short representation of the batch for logging
func (b *CollectionBatch) String() string {
	return fmt.Sprintf("CollectionBatch{MsgID: %s, Txs: %d, CtrlSum: %s}",
		b.MessageID, b.TransactionCount(), b.ControlSum().StringFixed(2))
}
