// Package tables turns raw uploaded bytes into string tables. It owns the
// messy half of ingestion: guessing the character encoding, guessing the
// CSV delimiter and reading XLSX workbooks, so the rest of the pipeline
// only ever sees clean [][]string data.
package tables

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	apperrors "github.com/tlf-hub/sdd-xml-generator/pkg/errors"
	"github.com/tlf-hub/sdd-xml-generator/pkg/logger"
)

// Table is a fully-read input table. Rows contains every non-empty row,
// header included when the file has one; interpretation of the first row
// is the schema mapper's job.
type Table struct {
	Rows      [][]string
	Source    string
	Encoding  string
	Delimiter rune
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// encodingCandidate is one entry of the ordered decoding strategy list
type encodingCandidate struct {
	name   string
	decode func([]byte) (string, error)
}

// encodingCandidates are tried in order; the first decoder that accepts
// the input wins. Latin-1 accepts any byte sequence, so the list always
// terminates there for non-UTF-8 input, but Windows-1252 stays listed to
// keep the candidate set explicit configuration data.
var encodingCandidates = []encodingCandidate{
	{"utf-8", decodeUTF8},
	{"utf-8-bom", decodeUTF8BOM},
	{"latin-1", decodeCharmapStrict(charmap.ISO8859_1)},
	{"windows-1252", decodeCharmapStrict(charmap.Windows1252)},
}

func decodeUTF8(data []byte) (string, error) {
	if bytes.HasPrefix(data, utf8BOM) {
		return "", io.ErrUnexpectedEOF // let the BOM candidate claim it
	}
	if !utf8.Valid(data) {
		return "", io.ErrUnexpectedEOF
	}
	return string(data), nil
}

func decodeUTF8BOM(data []byte) (string, error) {
	if !bytes.HasPrefix(data, utf8BOM) {
		return "", io.ErrUnexpectedEOF
	}
	stripped := data[len(utf8BOM):]
	if !utf8.Valid(stripped) {
		return "", io.ErrUnexpectedEOF
	}
	return string(stripped), nil
}

func decodeCharmapStrict(cm *charmap.Charmap) func([]byte) (string, error) {
	return func(data []byte) (string, error) {
		return cm.NewDecoder().String(string(data))
	}
}

// DecodeText decodes raw bytes using the first encoding candidate that
// accepts them and reports which one was used.
func DecodeText(data []byte, source string) (string, string, error) {
	for _, candidate := range encodingCandidates {
		text, err := candidate.decode(data)
		if err == nil {
			return text, candidate.name, nil
		}
	}
	return "", "", apperrors.IngestionError(apperrors.CodeUndecodableInput, source, nil)
}

// delimiterCandidates are counted in the leading sample; highest count
// wins, comma on a tie of zeros.
var delimiterCandidates = []rune{',', ';', '\t', '|'}

// delimiterSampleSize bounds how much of the file the detector looks at
const delimiterSampleSize = 4096

// DetectDelimiter returns the most frequent candidate delimiter in the
// leading sample of the text, defaulting to comma.
func DetectDelimiter(text string) rune {
	sample := text
	if len(sample) > delimiterSampleSize {
		sample = sample[:delimiterSampleSize]
	}

	best := ','
	bestCount := 0
	for _, candidate := range delimiterCandidates {
		count := strings.Count(sample, string(candidate))
		if count > bestCount {
			best = candidate
			bestCount = count
		}
	}
	return best
}

// ParseCSV reads delimited text into rows, skipping rows that are empty
// or whitespace-only. Rows may have varying field counts; the schema
// mapper enforces shape.
func ParseCSV(text string, delimiter rune, source string) ([][]string, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.IngestionError(apperrors.CodeUnreadableInput, source, err).
				WithSuggestion("check that the file is a well-formed CSV")
		}
		if isEmptyRecord(record) {
			continue
		}
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
		rows = append(rows, record)
	}

	if len(rows) == 0 {
		return nil, apperrors.IngestionError(apperrors.CodeEmptyInput, source, nil)
	}
	return rows, nil
}

func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// ReadCSVBytes decodes and parses a CSV byte stream into a Table
func ReadCSVBytes(data []byte, source string) (*Table, error) {
	log := logger.GetGlobalLogger().WithComponent("tables")

	text, encName, err := DecodeText(data, source)
	if err != nil {
		return nil, err
	}

	delimiter := DetectDelimiter(text)
	log.WithFields(logger.Fields{
		"source":    source,
		"encoding":  encName,
		"delimiter": string(delimiter),
	}).Debug("Decoded CSV input")

	rows, err := ParseCSV(text, delimiter, source)
	if err != nil {
		return nil, err
	}

	return &Table{
		Rows:      rows,
		Source:    source,
		Encoding:  encName,
		Delimiter: delimiter,
	}, nil
}

// ReadXLSXBytes reads the first sheet of an XLSX workbook into a Table
func ReadXLSXBytes(data []byte, source string) (*Table, error) {
	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.IngestionError(apperrors.CodeUnreadableInput, source, err).
			WithSuggestion("check that the file is a valid XLSX workbook")
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.IngestionError(apperrors.CodeEmptyInput, source, nil)
	}

	sheetRows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.IngestionError(apperrors.CodeUnreadableInput, source, err)
	}

	var rows [][]string
	for _, record := range sheetRows {
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
		if isEmptyRecord(record) {
			continue
		}
		rows = append(rows, record)
	}
	if len(rows) == 0 {
		return nil, apperrors.IngestionError(apperrors.CodeEmptyInput, source, nil)
	}

	return &Table{
		Rows:     rows,
		Source:   source,
		Encoding: "xlsx",
	}, nil
}

// LoadFile reads a table from disk, choosing the XLSX or CSV reader by
// file extension. The file is fully read and closed before parsing.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.IngestionError(apperrors.CodeUnreadableInput, path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadXLSXBytes(data, path)
	}
	return ReadCSVBytes(data, path)
}
