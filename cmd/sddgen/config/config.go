// Package config resolves the generate command's flags into the typed
// settings the compilation pipeline consumes.
package config

import (
	"path/filepath"
	"strings"

	"github.com/tlf-hub/sdd-xml-generator/internal/normalize"
	"github.com/tlf-hub/sdd-xml-generator/internal/profile"
	"github.com/tlf-hub/sdd-xml-generator/internal/report"
	apperrors "github.com/tlf-hub/sdd-xml-generator/pkg/errors"
)

// GenerateConfig collects every setting of one generate run
type GenerateConfig struct {
	CompanyFile    string
	RowsFile       string
	ProfileName    string
	ProfileFile    string
	CollectionDate string
	FlowID         string
	DatePolicy     string
	OutputDir      string
	OutputFile     string
	SummaryFormat  string
	SummaryFile    string
}

// Validate checks the flag combination before any file is touched
func (c *GenerateConfig) Validate() error {
	if c.CompanyFile == "" {
		return apperrors.ConfigurationError(apperrors.CodeMissingConfig, "company-file", nil)
	}
	if c.RowsFile == "" {
		return apperrors.ConfigurationError(apperrors.CodeMissingConfig, "rows-file", nil)
	}
	if _, err := c.ResolveDatePolicy(); err != nil {
		return err
	}
	if !report.OutputFormat(c.SummaryFormat).IsValid() {
		return apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "summary-format", c.SummaryFormat).
			WithSuggestion("valid formats are 'console' and 'json'")
	}
	return nil
}

// ResolveProfile picks the message profile: an override file wins over
// the builtin profile name.
func (c *GenerateConfig) ResolveProfile() (profile.MessageProfile, error) {
	if c.ProfileFile != "" {
		return profile.Load(c.ProfileFile)
	}
	return profile.ByName(c.ProfileName)
}

// ResolveDatePolicy maps the flag value onto a normalize.DatePolicy
func (c *GenerateConfig) ResolveDatePolicy() (normalize.DatePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(c.DatePolicy)) {
	case "", "reject":
		return normalize.DateReject, nil
	case "default-today":
		return normalize.DateDefaultToday, nil
	}
	return normalize.DateReject, apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "date-policy", c.DatePolicy).
		WithSuggestion("valid policies are 'reject' and 'default-today'")
}

// OutputPath resolves where the XML goes: an explicit output file wins,
// otherwise the profile's filename convention inside the output dir.
func (c *GenerateConfig) OutputPath(defaultName string) string {
	if c.OutputFile != "" {
		if filepath.IsAbs(c.OutputFile) || c.OutputDir == "" {
			return c.OutputFile
		}
		return filepath.Join(c.OutputDir, c.OutputFile)
	}
	if c.OutputDir == "" {
		return defaultName
	}
	return filepath.Join(c.OutputDir, defaultName)
}
