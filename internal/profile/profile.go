// Package profile describes the message variants as data. The ISO and CBI
// renditions of the collection message differ only in envelope, namespace,
// accepted table layout and remittance formatting, so a variant is a value
// the pipeline is parameterized with instead of a separate code path.
package profile

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tlf-hub/sdd-xml-generator/internal/schema"
	apperrors "github.com/tlf-hub/sdd-xml-generator/pkg/errors"
)

// RemittanceRule controls how a transaction's distinct references become
// the unstructured remittance text of the message.
type RemittanceRule struct {
	// Prefix is prepended to the joined references
	Prefix string `yaml:"prefix"`
	// Separator joins the distinct references
	Separator string `yaml:"separator"`
	// SequencePrefix prepends the zero-padded transaction sequence
	// number, as the CBI channel expects
	SequencePrefix bool `yaml:"sequence_prefix"`
	// SequenceWidth is the zero-padding width of the sequence number
	SequenceWidth int `yaml:"sequence_width"`
}

// Format renders the remittance line of the n-th transaction (1-based)
func (r RemittanceRule) Format(n int, references []string) string {
	text := r.Prefix + strings.Join(references, r.Separator)
	if r.SequencePrefix {
		return fmt.Sprintf("%0*d - %s", r.SequenceWidth, n, text)
	}
	return text
}

// MessageProfile is one message variant: which table layouts it accepts,
// which XML envelope it emits and how it formats remittance text.
type MessageProfile struct {
	Name           string `yaml:"name"`
	Namespace      string `yaml:"namespace"`
	RootElement    string `yaml:"root_element"`
	FilenamePrefix string `yaml:"filename_prefix"`

	// SuppressBlankLines drops whitespace-only lines from the serialized
	// document, a compactness requirement of some CBI portals
	SuppressBlankLines bool `yaml:"suppress_blank_lines"`

	Remittance RemittanceRule `yaml:"remittance"`

	// RowSchema and CompanySchema are the table layouts this variant
	// accepts; RequiredRowFields are the canonical fields a normalized
	// row must carry.
	RowSchema         *schema.Schema `yaml:"-"`
	CompanySchema     *schema.Schema `yaml:"-"`
	RequiredRowFields []string       `yaml:"-"`
}

// ISO is the plain pain.008.001.02 rendition
var ISO = MessageProfile{
	Name:           "iso",
	Namespace:      "urn:iso:std:iso:20022:tech:xsd:pain.008.001.02",
	RootElement:    "Document",
	FilenamePrefix: "SEPA_SDD",
	Remittance:     RemittanceRule{Separator: "; "},
	RowSchema:      schema.MinimalRows,
	CompanySchema:  schema.CompanyMinimal,
	RequiredRowFields: []string{
		schema.FieldName, schema.FieldIBAN, schema.FieldAmount,
		schema.FieldReference, schema.FieldDueDate,
	},
}

// CBI wraps the same payment block in the consortium envelope and uses
// the extended table layouts.
var CBI = MessageProfile{
	Name:               "cbi",
	Namespace:          "urn:CBI:xsd:CBIBdySDDReq.00.01.00",
	RootElement:        "CBIBdySDDReq",
	FilenamePrefix:     "CBI_SDD",
	SuppressBlankLines: true,
	Remittance: RemittanceRule{
		Separator:      "; ",
		SequencePrefix: true,
		SequenceWidth:  4,
	},
	RowSchema:     schema.ExtendedRows,
	CompanySchema: schema.CompanyExtended,
	RequiredRowFields: []string{
		schema.FieldName, schema.FieldTaxCode, schema.FieldIBAN,
		schema.FieldAmount, schema.FieldReference, schema.FieldSignatureDate,
	},
}

// ByName resolves a builtin profile by name, case-insensitively
func ByName(name string) (MessageProfile, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "iso":
		return ISO, nil
	case "cbi":
		return CBI, nil
	}
	return MessageProfile{}, apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "profile", name).
		WithSuggestion("valid profiles are 'iso' and 'cbi'")
}

// overlay is the YAML shape of a profile override file. Only the fields
// present in the file replace the base profile's values.
type overlay struct {
	Base               string  `yaml:"base"`
	Name               *string `yaml:"name"`
	Namespace          *string `yaml:"namespace"`
	RootElement        *string `yaml:"root_element"`
	FilenamePrefix     *string `yaml:"filename_prefix"`
	SuppressBlankLines *bool   `yaml:"suppress_blank_lines"`
	Remittance         *struct {
		Prefix         *string `yaml:"prefix"`
		Separator      *string `yaml:"separator"`
		SequencePrefix *bool   `yaml:"sequence_prefix"`
		SequenceWidth  *int    `yaml:"sequence_width"`
	} `yaml:"remittance"`
}

// Load reads a YAML override file and applies it on top of the builtin
// profile it names as base (default iso). Overrides cover presentation
// concerns only; the table schemas stay those of the base variant.
func Load(path string) (MessageProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return MessageProfile{}, apperrors.IngestionError(apperrors.CodeUnreadableInput, path, err)
	}

	var o overlay
	if err := yaml.Unmarshal(data, &o); err != nil {
		return MessageProfile{}, apperrors.ConfigurationError(apperrors.CodeInvalidConfig,
			"profile_file", fmt.Sprintf("%s: %v", path, err))
	}

	p, err := ByName(o.Base)
	if err != nil {
		return MessageProfile{}, err
	}

	if o.Name != nil {
		p.Name = *o.Name
	}
	if o.Namespace != nil {
		p.Namespace = *o.Namespace
	}
	if o.RootElement != nil {
		p.RootElement = *o.RootElement
	}
	if o.FilenamePrefix != nil {
		p.FilenamePrefix = *o.FilenamePrefix
	}
	if o.SuppressBlankLines != nil {
		p.SuppressBlankLines = *o.SuppressBlankLines
	}
	if o.Remittance != nil {
		if o.Remittance.Prefix != nil {
			p.Remittance.Prefix = *o.Remittance.Prefix
		}
		if o.Remittance.Separator != nil {
			p.Remittance.Separator = *o.Remittance.Separator
		}
		if o.Remittance.SequencePrefix != nil {
			p.Remittance.SequencePrefix = *o.Remittance.SequencePrefix
		}
		if o.Remittance.SequenceWidth != nil {
			p.Remittance.SequenceWidth = *o.Remittance.SequenceWidth
		}
	}
	return p, nil
}
