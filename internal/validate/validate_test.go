package validate

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tlf-hub/sdd-xml-generator/internal/models"
	"github.com/tlf-hub/sdd-xml-generator/internal/schema"
	apperrors "github.com/tlf-hub/sdd-xml-generator/pkg/errors"
)

func TestBuildCompanyProfile(t *testing.T) {
	values := map[string]string{
		schema.CompanyName:     "Acme SRL",
		schema.CompanyIBAN:     "IT60X0542811101000000123456",
		schema.CompanyCreditor: "IT99ZZZ1234567890",
	}

	profile, err := BuildCompanyProfile(values, schema.CompanyMinimal)
	if err != nil {
		t.Fatalf("BuildCompanyProfile() unexpected error: %v", err)
	}
	if profile.Name != "Acme SRL" {
		t.Errorf("Name = %q", profile.Name)
	}
	if profile.CreditorSchemeID != "IT99ZZZ1234567890" {
		t.Errorf("CreditorSchemeID = %q", profile.CreditorSchemeID)
	}
}

func TestBuildCompanyProfile_MissingCreditorID(t *testing.T) {
	values := map[string]string{
		schema.CompanyName: "Acme SRL",
		schema.CompanyIBAN: "IT60X0542811101000000123456",
	}

	_, err := BuildCompanyProfile(values, schema.CompanyMinimal)
	if err == nil {
		t.Fatal("expected an error for the missing creditor_id")
	}

	genErr, ok := apperrors.AsGeneratorError(err)
	if !ok {
		t.Fatal("expected a GeneratorError")
	}
	if genErr.Code != apperrors.CodeMissingField {
		t.Errorf("Code = %s, want %s", genErr.Code, apperrors.CodeMissingField)
	}
	if !strings.Contains(genErr.Message, "creditor_id") {
		t.Errorf("Message = %q, want it to name creditor_id", genErr.Message)
	}
}

func TestBuildCompanyProfile_PadsClearingCode(t *testing.T) {
	values := map[string]string{
		schema.CompanyName:     "Acme SRL",
		schema.CompanyIBAN:     "IT60X0542811101000000123456",
		schema.CompanyCreditor: "IT99ZZZ1234567890",
		schema.CompanyABI:      "542",
	}

	profile, err := BuildCompanyProfile(values, schema.CompanyExtended)
	if err != nil {
		t.Fatalf("BuildCompanyProfile() unexpected error: %v", err)
	}
	if profile.ClearingCode != "00542" {
		t.Errorf("ClearingCode = %q, want 00542", profile.ClearingCode)
	}
}

func TestPadClearingCode(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", ""},
		{"  ", ""},
		{"542", "00542"},
		{"05428", "05428"},
		{"123456", "123456"},
	}

	for _, tt := range tests {
		if got := PadClearingCode(tt.raw); got != tt.want {
			t.Errorf("PadClearingCode(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func validRow() models.NormalizedRow {
	return models.NormalizedRow{
		Name:          "Mario Rossi",
		IBAN:          "IT60X0542811101000000123456",
		Amount:        decimal.RequireFromString("100.50"),
		Reference:     "Fattura 001",
		DueDate:       "2024-02-15",
		SignatureDate: "2024-01-10",
		SequenceType:  models.SequenceRecurring,
		SourceRow:     2,
	}
}

var minimalRequired = []string{
	schema.FieldName, schema.FieldIBAN, schema.FieldAmount,
	schema.FieldReference, schema.FieldDueDate,
}

func TestRows_Valid(t *testing.T) {
	if err := Rows([]models.NormalizedRow{validRow()}, minimalRequired); err != nil {
		t.Fatalf("Rows() unexpected error: %v", err)
	}
}

func TestRows_MissingFieldReportsRow(t *testing.T) {
	bad := validRow()
	bad.Reference = ""
	bad.SourceRow = 5

	err := Rows([]models.NormalizedRow{validRow(), bad}, minimalRequired)
	if err == nil {
		t.Fatal("expected an error")
	}

	genErr, _ := apperrors.AsGeneratorError(err)
	if genErr.Context["row"] != 5 {
		t.Errorf("Context[row] = %v, want 5", genErr.Context["row"])
	}
	if !strings.Contains(genErr.Message, "row 5") {
		t.Errorf("Message = %q, want it to mention row 5", genErr.Message)
	}
	if genErr.Context["field"] != schema.FieldReference {
		t.Errorf("Context[field] = %v, want %s", genErr.Context["field"], schema.FieldReference)
	}
}

func TestRows_NonPositiveAmount(t *testing.T) {
	bad := validRow()
	bad.Amount = decimal.Zero

	err := Rows([]models.NormalizedRow{bad}, minimalRequired)
	genErr, ok := apperrors.AsGeneratorError(err)
	if !ok {
		t.Fatal("expected a GeneratorError")
	}
	if genErr.Code != apperrors.CodeInvalidAmount {
		t.Errorf("Code = %s, want %s", genErr.Code, apperrors.CodeInvalidAmount)
	}
}
