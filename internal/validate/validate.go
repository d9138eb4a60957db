// Package validate enforces presence of the mandatory financial-message
// fields before assembly. A missing creditor identifier or an empty debtor
// IBAN produces a file a bank silently rejects, so validation fails fast
// on the first violation and names the field and row to fix.
package validate

import (
	"strings"

	"github.com/tlf-hub/sdd-xml-generator/internal/models"
	"github.com/tlf-hub/sdd-xml-generator/internal/schema"
	apperrors "github.com/tlf-hub/sdd-xml-generator/pkg/errors"
)

// clearingCodeLength is the fixed width of an Italian ABI code
const clearingCodeLength = 5

// BuildCompanyProfile validates mapped company values against the company
// schema and builds the profile. The ABI clearing code, when present, is
// left-padded with zeros to its fixed width.
func BuildCompanyProfile(values map[string]string, s *schema.Schema) (models.CompanyProfile, error) {
	var profile models.CompanyProfile

	for _, field := range s.Fields {
		if !field.Required {
			continue
		}
		if strings.TrimSpace(values[field.ID]) == "" {
			return profile, apperrors.ValidationError(apperrors.CodeMissingField, field.Label, "", nil).
				WithSuggestion("fill in the '" + field.Label + "' field of the company table")
		}
	}

	profile = models.CompanyProfile{
		Name:             strings.TrimSpace(values[schema.CompanyName]),
		Address:          strings.TrimSpace(values[schema.CompanyAddress]),
		IBAN:             strings.TrimSpace(values[schema.CompanyIBAN]),
		ClearingCode:     PadClearingCode(values[schema.CompanyABI]),
		CreditorSchemeID: strings.TrimSpace(values[schema.CompanyCreditor]),
		MandatePrefix:    strings.TrimSpace(values[schema.CompanyMandatePr]),
	}

	if err := profile.Validate(); err != nil {
		return models.CompanyProfile{}, err
	}
	return profile, nil
}

// PadClearingCode left-pads a bank clearing code with zeros to 5 digits;
// an empty code stays empty.
func PadClearingCode(raw string) string {
	code := strings.TrimSpace(raw)
	if code == "" {
		return ""
	}
	for len(code) < clearingCodeLength {
		code = "0" + code
	}
	return code
}

// Rows checks that every required canonical field is non-empty in every
// normalized row and that every amount is strictly positive. The first
// offending row aborts the batch with its 1-based file row number.
func Rows(rows []models.NormalizedRow, required []string) error {
	for _, row := range rows {
		for _, id := range required {
			if strings.TrimSpace(rowField(row, id)) == "" {
				return apperrors.RowError(
					apperrors.ValidationError(apperrors.CodeMissingField, id, "", nil),
					row.SourceRow)
			}
		}
		if !row.Amount.IsPositive() {
			return apperrors.RowError(
				apperrors.ValidationError(apperrors.CodeInvalidAmount, schema.FieldAmount, row.Amount.String(), nil).
					WithSuggestion("collection amounts must be greater than zero"),
				row.SourceRow)
		}
	}
	return nil
}

// rowField resolves a canonical field id to its normalized-row value.
// The amount is handled separately since it is not a string.
func rowField(row models.NormalizedRow, id string) string {
	switch id {
	case schema.FieldName:
		return row.Name
	case schema.FieldTaxCode:
		return row.TaxCode
	case schema.FieldIBAN:
		return row.IBAN
	case schema.FieldBIC:
		return row.BIC
	case schema.FieldAmount:
		return row.Amount.String()
	case schema.FieldReference:
		return row.Reference
	case schema.FieldDueDate:
		return row.DueDate
	case schema.FieldSignatureDate:
		return row.SignatureDate
	case schema.FieldMandateRef:
		return row.MandateRef
	case schema.FieldSequenceType:
		return row.SequenceType.String()
	case schema.FieldAddress:
		return row.Address
	case schema.FieldPostalCode:
		return row.PostalCode
	case schema.FieldCity:
		return row.City
	case schema.FieldProvince:
		return row.Province
	case schema.FieldCountry:
		return row.Country
	}
	return ""
}
