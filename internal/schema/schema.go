// Package schema maps arbitrary input tables onto the canonical collection
// and company record layouts. Input files arrive with correct headers,
// loosely-named headers or no headers at all; the mapper resolves all three
// cases with keyword heuristics and a positional fallback.
package schema

import (
	"strings"

	"github.com/tlf-hub/sdd-xml-generator/internal/models"
	apperrors "github.com/tlf-hub/sdd-xml-generator/pkg/errors"
	"github.com/tlf-hub/sdd-xml-generator/pkg/logger"
)

// Canonical field identifiers shared by all row schemas
const (
	FieldName          = "name"
	FieldSurname       = "surname"
	FieldTaxCode       = "tax_code"
	FieldIBAN          = "iban"
	FieldBIC           = "bic"
	FieldAmount        = "amount"
	FieldReference     = "reference"
	FieldDueDate       = "due_date"
	FieldSignatureDate = "signature_date"
	FieldMandateRef    = "mandate_ref"
	FieldSequenceType  = "sequence_type"
	FieldAddress       = "address"
	FieldPostalCode    = "postal_code"
	FieldCity          = "city"
	FieldProvince      = "province"
	FieldCountry       = "country"
)

// Field is one canonical column of a schema. Label is the template column
// name, Keywords the lowercase tokens that identify the column in a
// user-renamed header.
type Field struct {
	ID       string
	Label    string
	Keywords []string
	Required bool
}

// Schema is the canonical layout of one input table variant. Fields are in
// positional order: required fields first, optional fields after, matching
// the downloadable templates.
type Schema struct {
	Name   string
	Fields []Field
}

// MinimalRows is the layout of the basic collections template
var MinimalRows = &Schema{
	Name: "incassi",
	Fields: []Field{
		{ID: FieldName, Label: "nome", Keywords: []string{"nome", "debitore"}, Required: true},
		{ID: FieldSurname, Label: "cognome", Keywords: []string{"cognome"}, Required: true},
		{ID: FieldIBAN, Label: "iban", Keywords: []string{"iban"}, Required: true},
		{ID: FieldAmount, Label: "importo", Keywords: []string{"importo", "ammontare", "totale"}, Required: true},
		{ID: FieldReference, Label: "causale", Keywords: []string{"causale", "descrizione", "motivo"}, Required: true},
		{ID: FieldDueDate, Label: "data_scadenza", Keywords: []string{"scadenza"}, Required: true},
		{ID: FieldMandateRef, Label: "rum", Keywords: []string{"rum"}, Required: false},
		{ID: FieldSignatureDate, Label: "data_firma_mandato", Keywords: []string{"data", "firma", "mandato"}, Required: false},
		{ID: FieldSequenceType, Label: "tipo_sequenza", Keywords: []string{"tipo", "sequenza"}, Required: false},
	},
}

// ExtendedRows is the layout of the extended (CBI) collections template
var ExtendedRows = &Schema{
	Name: "incassi_estesi",
	Fields: []Field{
		{ID: FieldName, Label: "nome_debitore", Keywords: []string{"nome", "debitore"}, Required: true},
		{ID: FieldTaxCode, Label: "codice_fiscale", Keywords: []string{"codice", "fiscale", "cf", "piva", "partita"}, Required: true},
		{ID: FieldIBAN, Label: "iban", Keywords: []string{"iban"}, Required: true},
		{ID: FieldAmount, Label: "importo", Keywords: []string{"importo", "ammontare", "totale"}, Required: true},
		{ID: FieldReference, Label: "causale", Keywords: []string{"causale", "descrizione", "motivo"}, Required: true},
		{ID: FieldSignatureDate, Label: "data_firma_mandato", Keywords: []string{"data", "firma", "mandato"}, Required: true},
		{ID: FieldAddress, Label: "indirizzo", Keywords: []string{"indirizzo", "via"}, Required: false},
		{ID: FieldPostalCode, Label: "cap", Keywords: []string{"cap"}, Required: false},
		{ID: FieldCity, Label: "citta", Keywords: []string{"citta", "città", "comune"}, Required: false},
		{ID: FieldProvince, Label: "provincia", Keywords: []string{"provincia", "prov"}, Required: false},
		{ID: FieldCountry, Label: "paese", Keywords: []string{"paese", "nazione"}, Required: false},
		{ID: FieldBIC, Label: "bic", Keywords: []string{"bic", "swift"}, Required: false},
	},
}

// RequiredCount returns the number of required fields
func (s *Schema) RequiredCount() int {
	count := 0
	for _, f := range s.Fields {
		if f.Required {
			count++
		}
	}
	return count
}

// RequiredLabels returns the template column names of the required fields
func (s *Schema) RequiredLabels() []string {
	var labels []string
	for _, f := range s.Fields {
		if f.Required {
			labels = append(labels, f.Label)
		}
	}
	return labels
}

// Record is one mapped data row: canonical field id to raw value, plus the
// 1-based row number in the source file for error reporting.
type Record struct {
	Values    map[string]string
	SourceRow int
}

// Get returns the value of a canonical field, empty when unmapped
func (r Record) Get(id string) string {
	return r.Values[id]
}

// MapRows maps an input table onto a row schema. Resolution order:
//  1. column count outside [required, all fields] fails;
//  2. no header token matching any keyword means headerless positional input;
//  3. otherwise headers map by keyword score, falling back to positional
//     order when the keyword mapping does not cover every column.
func MapRows(rows [][]string, s *Schema, source string) ([]Record, error) {
	log := logger.GetGlobalLogger().WithComponent("schema")

	if len(rows) == 0 {
		return nil, apperrors.IngestionError(apperrors.CodeEmptyInput, source, nil)
	}

	cols := len(rows[0])
	if cols < s.RequiredCount() || cols > len(s.Fields) {
		return nil, apperrors.SchemaError(apperrors.CodeColumnCountMismatch, s.Name, cols, s.RequiredCount())
	}

	columnFields, headerDetected := mapHeader(rows[0], s)
	if columnFields == nil {
		// Positional: column i is field i. The first row is still a header
		// when it looked like one but could not be fully keyword-mapped.
		columnFields = make([]string, cols)
		for i := 0; i < cols; i++ {
			columnFields[i] = s.Fields[i].ID
		}
	}

	dataStart := 0
	if headerDetected {
		dataStart = 1
	}
	if dataStart >= len(rows) {
		return nil, apperrors.IngestionError(apperrors.CodeEmptyInput, source, nil)
	}

	log.WithFields(logger.Fields{
		"schema":  s.Name,
		"columns": cols,
		"header":  headerDetected,
		"rows":    len(rows) - dataStart,
	}).Debug("Mapped input table")

	records := make([]Record, 0, len(rows)-dataStart)
	for i := dataStart; i < len(rows); i++ {
		values := make(map[string]string, cols)
		for col, id := range columnFields {
			if col < len(rows[i]) {
				values[id] = rows[i][col]
			}
		}
		records = append(records, Record{Values: values, SourceRow: i + 1})
	}
	return records, nil
}

// mapHeader tries to map the first row onto schema fields by keywords.
// It returns the per-column field ids when every column mapped to a
// distinct field, or nil for positional fallback. The second return value
// reports whether the first row looked like a header at all.
func mapHeader(header []string, s *Schema) ([]string, bool) {
	assigned := make(map[string]bool, len(s.Fields))
	mapped := make([]string, len(header))
	anyMatch := false
	complete := true

	for col, cell := range header {
		tokens := headerTokens(cell)
		best := ""
		bestScore := 0
		for _, f := range s.Fields {
			if assigned[f.ID] {
				continue
			}
			score := keywordScore(tokens, f.Keywords)
			if score > bestScore {
				best = f.ID
				bestScore = score
			}
		}
		if best == "" {
			complete = false
			continue
		}
		anyMatch = true
		assigned[best] = true
		mapped[col] = best
	}

	if !anyMatch {
		return nil, false
	}
	if !complete {
		return nil, true
	}
	return mapped, true
}

// headerTokens lowercases a header cell and splits it on separators
func headerTokens(cell string) []string {
	lower := strings.ToLower(strings.TrimSpace(cell))
	return strings.FieldsFunc(lower, func(r rune) bool {
		switch r {
		case '_', '-', ' ', '.', '/':
			return true
		}
		return false
	})
}

func keywordScore(tokens, keywords []string) int {
	score := 0
	for _, tok := range tokens {
		for _, kw := range keywords {
			if tok == kw {
				score++
			}
		}
	}
	return score
}

// BuildRawRows converts mapped records into raw collection rows
func BuildRawRows(records []Record) []models.RawCollectionRow {
	rows := make([]models.RawCollectionRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, models.RawCollectionRow{
			Name:          rec.Get(FieldName),
			Surname:       rec.Get(FieldSurname),
			TaxCode:       rec.Get(FieldTaxCode),
			Address:       rec.Get(FieldAddress),
			PostalCode:    rec.Get(FieldPostalCode),
			City:          rec.Get(FieldCity),
			Province:      rec.Get(FieldProvince),
			Country:       rec.Get(FieldCountry),
			IBAN:          rec.Get(FieldIBAN),
			BIC:           rec.Get(FieldBIC),
			Amount:        rec.Get(FieldAmount),
			Reference:     rec.Get(FieldReference),
			SignatureDate: rec.Get(FieldSignatureDate),
			DueDate:       rec.Get(FieldDueDate),
			MandateRef:    rec.Get(FieldMandateRef),
			SequenceType:  rec.Get(FieldSequenceType),
			SourceRow:     rec.SourceRow,
		})
	}
	return rows
}
