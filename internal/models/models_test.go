package models

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/tlf-hub/sdd-xml-generator/pkg/errors"
)

func TestParseSequenceType(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		want      SequenceType
		wantError bool
	}{
		{"Empty defaults to recurring", "", SequenceRecurring, false},
		{"Whitespace defaults to recurring", "   ", SequenceRecurring, false},
		{"First", "FRST", SequenceFirst, false},
		{"Lowercase recurring", "rcur", SequenceRecurring, false},
		{"One-off with padding", " OOFF ", SequenceOneOff, false},
		{"Final", "FNAL", SequenceFinal, false},
		{"Unknown tag", "MONTHLY", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSequenceType(tt.raw)
			if (err != nil) != tt.wantError {
				t.Fatalf("ParseSequenceType(%q) error = %v, wantError %v", tt.raw, err, tt.wantError)
			}
			if !tt.wantError && got != tt.want {
				t.Errorf("ParseSequenceType(%q) = %s, want %s", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCompanyProfile_Validate(t *testing.T) {
	valid := CompanyProfile{
		Name:             "Acme SRL",
		IBAN:             "IT60X0542811101000000123456",
		CreditorSchemeID: "IT99ZZZ1234567890",
	}

	tests := []struct {
		name         string
		mutate       func(cp *CompanyProfile)
		wantError    bool
		wantField    string
	}{
		{"Valid profile", func(cp *CompanyProfile) {}, false, ""},
		{"Missing name", func(cp *CompanyProfile) { cp.Name = "" }, true, "nome_azienda"},
		{"Missing IBAN", func(cp *CompanyProfile) { cp.IBAN = "" }, true, "iban"},
		{"Missing creditor id", func(cp *CompanyProfile) { cp.CreditorSchemeID = "" }, true, "creditor_id"},
		{"IBAN without country code", func(cp *CompanyProfile) { cp.IBAN = "0542811101000" }, true, "iban"},
		{"Creditor id without country code", func(cp *CompanyProfile) { cp.CreditorSchemeID = "99ZZZ" }, true, "creditor_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cp := valid
			tt.mutate(&cp)
			err := cp.Validate()
			if (err != nil) != tt.wantError {
				t.Fatalf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
			if tt.wantError {
				genErr, ok := apperrors.AsGeneratorError(err)
				if !ok {
					t.Fatal("expected a GeneratorError")
				}
				if genErr.Context["field"] != tt.wantField {
					t.Errorf("error field = %v, want %s", genErr.Context["field"], tt.wantField)
				}
			}
		})
	}
}

func TestRawCollectionRow_DebtorName(t *testing.T) {
	row := RawCollectionRow{Name: "Mario", Surname: "Rossi"}
	if got := row.DebtorName(); got != "Mario Rossi" {
		t.Errorf("DebtorName() = %q, want %q", got, "Mario Rossi")
	}

	row = RawCollectionRow{Name: "Rossi Costruzioni SPA"}
	if got := row.DebtorName(); got != "Rossi Costruzioni SPA" {
		t.Errorf("DebtorName() = %q, want %q", got, "Rossi Costruzioni SPA")
	}
}

func TestCollectionBatch_ControlSum(t *testing.T) {
	batch := &CollectionBatch{
		Transactions: []DebtorTransaction{
			{EndToEndID: "E2E-1", Amount: decimal.RequireFromString("100.50")},
			{EndToEndID: "E2E-2", Amount: decimal.RequireFromString("50.00")},
			{EndToEndID: "E2E-3", Amount: decimal.RequireFromString("0.01")},
		},
	}

	if got := batch.ControlSum().StringFixed(2); got != "150.51" {
		t.Errorf("ControlSum() = %s, want 150.51", got)
	}
	if got := batch.TransactionCount(); got != 3 {
		t.Errorf("TransactionCount() = %d, want 3", got)
	}
}

func TestCollectionBatch_ControlSum_NoDrift(t *testing.T) {
	// 1.01 summed ten million times is exactly 10100000.00, past a
	// billion cents; a float64 accumulator would have drifted.
	amount := decimal.RequireFromString("1.01")
	sum := decimal.Zero
	for i := 0; i < 10_000_000; i++ {
		sum = sum.Add(amount)
	}
	if got := sum.StringFixed(2); got != "10100000.00" {
		t.Errorf("sum = %s, want 10100000.00", got)
	}

	// The same magnitude stays exact through a batch control sum.
	batch := &CollectionBatch{
		Transactions: []DebtorTransaction{
			{EndToEndID: "E2E-1", Amount: sum},
			{EndToEndID: "E2E-2", Amount: decimal.RequireFromString("0.01")},
		},
	}
	if got := batch.ControlSum().StringFixed(2); got != "10100000.01" {
		t.Errorf("ControlSum() = %s, want 10100000.01", got)
	}
}

func TestCollectionBatch_CheckConsistency(t *testing.T) {
	tests := []struct {
		name      string
		batch     *CollectionBatch
		wantError bool
		wantIn    string
	}{
		{
			name: "Consistent batch",
			batch: &CollectionBatch{Transactions: []DebtorTransaction{
				{EndToEndID: "E2E-1", Amount: decimal.RequireFromString("10.00")},
				{EndToEndID: "E2E-2", Amount: decimal.RequireFromString("20.00")},
			}},
			wantError: false,
		},
		{
			name: "Duplicate end-to-end id",
			batch: &CollectionBatch{Transactions: []DebtorTransaction{
				{EndToEndID: "E2E-1", Amount: decimal.RequireFromString("10.00")},
				{EndToEndID: "E2E-1", Amount: decimal.RequireFromString("20.00")},
			}},
			wantError: true,
			wantIn:    "E2E-1",
		},
		{
			name: "Missing end-to-end id",
			batch: &CollectionBatch{Transactions: []DebtorTransaction{
				{EndToEndID: "", Amount: decimal.RequireFromString("10.00")},
			}},
			wantError: true,
		},
		{
			name: "Non-positive amount",
			batch: &CollectionBatch{Transactions: []DebtorTransaction{
				{EndToEndID: "E2E-1", Amount: decimal.Zero},
			}},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.batch.CheckConsistency()
			if (err != nil) != tt.wantError {
				t.Fatalf("CheckConsistency() error = %v, wantError %v", err, tt.wantError)
			}
			if tt.wantIn != "" && !strings.Contains(err.Error(), tt.wantIn) {
				t.Errorf("error = %q, want it to mention %q", err.Error(), tt.wantIn)
			}
		})
	}
}

func TestCollectionBatch_String(t *testing.T) {
	batch := &CollectionBatch{
		MessageID:    "MSG-1700000000",
		CreationTime: time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC),
		Transactions: []DebtorTransaction{
			{EndToEndID: "E2E-1", Amount: decimal.RequireFromString("150.50")},
		},
	}

	s := batch.String()
	for _, want := range []string{"MSG-1700000000", "Txs: 1", "150.50"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, want it to contain %q", s, want)
		}
	}
}
