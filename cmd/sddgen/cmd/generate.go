package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tlf-hub/sdd-xml-generator/cmd/sddgen/config"
	"github.com/tlf-hub/sdd-xml-generator/internal/compiler"
	"github.com/tlf-hub/sdd-xml-generator/internal/models"
	"github.com/tlf-hub/sdd-xml-generator/internal/profile"
	"github.com/tlf-hub/sdd-xml-generator/internal/report"
	"github.com/tlf-hub/sdd-xml-generator/internal/schema"
	"github.com/tlf-hub/sdd-xml-generator/internal/tables"
	"github.com/tlf-hub/sdd-xml-generator/internal/validate"
	apperrors "github.com/tlf-hub/sdd-xml-generator/pkg/errors"
	"github.com/tlf-hub/sdd-xml-generator/pkg/logger"
)

var generateCfg config.GenerateConfig

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Compile collection rows into a SEPA SDD XML file",
	Long: `Generate reads a company-profile table and a collection-rows table
(CSV or XLSX), aggregates the rows per debtor IBAN and writes one
pain.008.001.02 (or CBI) XML file ready for bank upload.

Examples:
  # ISO message from the shipped templates
  sddgen generate --company-file azienda.csv --rows-file incassi.csv

  # CBI variant with an explicit collection date
  sddgen generate --company-file azienda.csv --rows-file incassi.xlsx \
    --profile cbi --collection-date 2024-02-15

  # Bank-specific profile overrides and a JSON summary
  sddgen generate --company-file azienda.csv --rows-file incassi.csv \
    --profile-file banca.yaml --summary-format json`,

	PreRunE: func(cmd *cobra.Command, args []string) error {
		return generateCfg.Validate()
	},
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&generateCfg.CompanyFile, "company-file", "c", "", "path to the company-profile table (required)")
	generateCmd.Flags().StringVarP(&generateCfg.RowsFile, "rows-file", "r", "", "path to the collection-rows table (required)")

	generateCmd.Flags().StringVarP(&generateCfg.ProfileName, "profile", "p", "iso", "message profile: iso, cbi")
	generateCmd.Flags().StringVar(&generateCfg.ProfileFile, "profile-file", "", "YAML profile override file")

	generateCmd.Flags().StringVar(&generateCfg.CollectionDate, "collection-date", "", "requested collection date (default: first row's due date)")
	generateCmd.Flags().StringVar(&generateCfg.FlowID, "flow-id", "", "flow id embedded in the message id")
	generateCmd.Flags().StringVar(&generateCfg.DatePolicy, "date-policy", "reject", "unparseable-date handling: reject, default-today")

	generateCmd.Flags().StringVarP(&generateCfg.OutputDir, "output-dir", "d", ".", "directory for the XML file")
	generateCmd.Flags().StringVarP(&generateCfg.OutputFile, "output-file", "o", "", "XML file name (default: <prefix>_<timestamp>.xml)")
	generateCmd.Flags().StringVar(&generateCfg.SummaryFormat, "summary-format", "console", "batch summary format: console, json")
	generateCmd.Flags().StringVar(&generateCfg.SummaryFile, "summary-file", "", "summary file path (default: stdout)")

	generateCmd.MarkFlagRequired("company-file")
	generateCmd.MarkFlagRequired("rows-file")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	handler := NewCLIErrorHandler()
	log := logger.GetGlobalLogger().WithComponent("generate")

	if _, err := generate(log); err != nil {
		os.Exit(handler.HandleError(err))
	}
	return nil
}

func generate(log logger.Logger) (*compiler.Result, error) {
	p, err := generateCfg.ResolveProfile()
	if err != nil {
		return nil, err
	}
	datePolicy, err := generateCfg.ResolveDatePolicy()
	if err != nil {
		return nil, err
	}

	company, err := loadCompany(generateCfg.CompanyFile, p)
	if err != nil {
		return nil, err
	}
	rows, err := loadRows(generateCfg.RowsFile, p)
	if err != nil {
		return nil, err
	}

	log.WithFields(logger.Fields{
		"company": company.Name,
		"rows":    len(rows),
		"profile": p.Name,
	}).Info("Compiling collection batch")

	result, err := compiler.Compile(compiler.Request{
		Company: company,
		Rows:    rows,
		Options: compiler.Options{
			Profile:        p,
			CollectionDate: generateCfg.CollectionDate,
			FlowID:         generateCfg.FlowID,
			DatePolicy:     datePolicy,
		},
	})
	if err != nil {
		return nil, err
	}

	path := generateCfg.OutputPath(result.Filename)
	if err := os.WriteFile(path, result.XML, 0o644); err != nil {
		return nil, apperrors.InternalError(apperrors.CodeUnexpectedError, "writing "+path, err).
			WithSuggestion("check that the output directory exists and is writable")
	}

	fmt.Printf("Wrote %s (%d transactions, EUR %s)\n\n",
		path, result.Batch.TransactionCount(), result.Batch.ControlSum().StringFixed(2))

	if err := writeSummary(result); err != nil {
		return nil, err
	}
	return result, nil
}

func writeSummary(result *compiler.Result) error {
	format := report.OutputFormat(generateCfg.SummaryFormat)

	if generateCfg.SummaryFile == "" {
		return report.Write(os.Stdout, result.Batch, format)
	}

	f, err := os.Create(generateCfg.SummaryFile)
	if err != nil {
		return apperrors.InternalError(apperrors.CodeUnexpectedError, "writing "+generateCfg.SummaryFile, err).
			WithSuggestion("check that the summary path is writable")
	}
	defer f.Close()
	return report.Write(f, result.Batch, format)
}

// loadCompany reads and maps the company-profile table
func loadCompany(path string, p profile.MessageProfile) (models.CompanyProfile, error) {
	table, err := tables.LoadFile(path)
	if err != nil {
		return models.CompanyProfile{}, err
	}
	values, err := schema.MapCompany(table.Rows, p.CompanySchema, path)
	if err != nil {
		return models.CompanyProfile{}, err
	}
	return validate.BuildCompanyProfile(values, p.CompanySchema)
}

// loadRows reads and maps the collection-rows table
func loadRows(path string, p profile.MessageProfile) ([]models.RawCollectionRow, error) {
	table, err := tables.LoadFile(path)
	if err != nil {
		return nil, err
	}
	records, err := schema.MapRows(table.Rows, p.RowSchema, path)
	if err != nil {
		return nil, err
	}
	return schema.BuildRawRows(records), nil
}
