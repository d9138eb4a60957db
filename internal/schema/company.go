package schema

import (
	"strings"

	apperrors "github.com/tlf-hub/sdd-xml-generator/pkg/errors"
)

// Canonical company-profile field identifiers
const (
	CompanyName      = "company_name"
	CompanyAddress   = "company_address"
	CompanyIBAN      = "company_iban"
	CompanyABI       = "company_abi"
	CompanyCreditor  = "creditor_id"
	CompanyMandatePr = "mandate_prefix"
)

// CompanyMinimal is the 3-field company template layout
var CompanyMinimal = &Schema{
	Name: "dati_aziendali",
	Fields: []Field{
		{ID: CompanyName, Label: "nome_azienda", Keywords: []string{"nome", "ragione"}, Required: true},
		{ID: CompanyIBAN, Label: "iban", Keywords: []string{"iban"}, Required: true},
		{ID: CompanyCreditor, Label: "creditor_id", Keywords: []string{"creditor", "ics"}, Required: true},
	},
}

// CompanyExtended is the 6-field company template layout for the CBI variant
var CompanyExtended = &Schema{
	Name: "dati_aziendali_estesi",
	Fields: []Field{
		{ID: CompanyName, Label: "nome_azienda", Keywords: []string{"nome", "ragione"}, Required: true},
		{ID: CompanyIBAN, Label: "iban", Keywords: []string{"iban"}, Required: true},
		{ID: CompanyCreditor, Label: "creditor_id", Keywords: []string{"creditor", "ics"}, Required: true},
		{ID: CompanyAddress, Label: "indirizzo_azienda", Keywords: []string{"indirizzo", "sede"}, Required: false},
		{ID: CompanyABI, Label: "abi", Keywords: []string{"abi"}, Required: false},
		{ID: CompanyMandatePr, Label: "prefisso_mandato", Keywords: []string{"prefisso"}, Required: false},
	},
}

// MapCompany maps a company-profile table onto canonical field values.
// Two shapes are accepted: the campo/valore key-value template the
// generator ships, and a flat table with a header row and exactly one
// data row.
func MapCompany(rows [][]string, s *Schema, source string) (map[string]string, error) {
	if len(rows) == 0 {
		return nil, apperrors.IngestionError(apperrors.CodeEmptyInput, source, nil)
	}

	if isKeyValueHeader(rows[0]) {
		return mapCompanyKeyValue(rows[1:], s, source)
	}
	return mapCompanyFlat(rows, s, source)
}

// isKeyValueHeader recognizes the campo,valore template header
func isKeyValueHeader(header []string) bool {
	if len(header) != 2 {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(header[0]), "campo") &&
		strings.EqualFold(strings.TrimSpace(header[1]), "valore")
}

func mapCompanyKeyValue(rows [][]string, s *Schema, source string) (map[string]string, error) {
	if len(rows) == 0 {
		return nil, apperrors.IngestionError(apperrors.CodeEmptyInput, source, nil)
	}

	values := make(map[string]string, len(s.Fields))
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		key := strings.TrimSpace(row[0])
		if field := matchCompanyField(key, s); field != "" {
			values[field] = strings.TrimSpace(row[1])
		}
	}
	return values, nil
}

func mapCompanyFlat(rows [][]string, s *Schema, source string) (map[string]string, error) {
	cols := len(rows[0])
	if cols < s.RequiredCount() || cols > len(s.Fields) {
		return nil, apperrors.SchemaError(apperrors.CodeColumnCountMismatch, s.Name, cols, s.RequiredCount())
	}
	if len(rows) < 2 {
		return nil, apperrors.IngestionError(apperrors.CodeEmptyInput, source, nil).
			WithSuggestion("the company table needs a header row and one data row")
	}

	columnFields := make([]string, cols)
	matched := 0
	for col, cell := range rows[0] {
		if field := matchCompanyField(cell, s); field != "" {
			columnFields[col] = field
			matched++
		}
	}
	if matched != cols {
		// Positional fallback, template column order.
		for i := 0; i < cols; i++ {
			columnFields[i] = s.Fields[i].ID
		}
	}

	data := rows[1]
	values := make(map[string]string, cols)
	for col, field := range columnFields {
		if col < len(data) {
			values[field] = strings.TrimSpace(data[col])
		}
	}
	return values, nil
}

// matchCompanyField resolves a header or key cell to a company field id,
// by exact label first and keyword tokens second
func matchCompanyField(cell string, s *Schema) string {
	trimmed := strings.ToLower(strings.TrimSpace(cell))
	for _, f := range s.Fields {
		if trimmed == f.Label {
			return f.ID
		}
	}

	tokens := headerTokens(cell)
	best := ""
	bestScore := 0
	for _, f := range s.Fields {
		if score := keywordScore(tokens, f.Keywords); score > bestScore {
			best = f.ID
			bestScore = score
		}
	}
	return best
}
