package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	apperrors "github.com/tlf-hub/sdd-xml-generator/pkg/errors"
	"github.com/tlf-hub/sdd-xml-generator/pkg/logger"
)

// CLIErrorHandler provides user-friendly error handling for CLI operations
type CLIErrorHandler struct {
	logger  logger.Logger
	verbose bool
}

// NewCLIErrorHandler creates a new CLI error handler
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
	}
}

// HandleError prints a user-friendly message and returns the exit code
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Error("Command failed")

	if genErr, ok := apperrors.AsGeneratorError(err); ok {
		return h.handleGeneratorError(genErr)
	}
	return h.handleGenericError(err)
}

func (h *CLIErrorHandler) handleGeneratorError(err *apperrors.GeneratorError) int {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		fmt.Fprintf(os.Stderr, "\nContext:\n")
		for key, value := range err.Context {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", key, value)
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "\nSuggestion: %s\n", err.Suggestion)
	}

	fmt.Fprintf(os.Stderr, "\n%s\n", h.getCategoryHelp(err.Category))

	if h.verbose && err.Cause != nil {
		fmt.Fprintf(os.Stderr, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

func (h *CLIErrorHandler) handleGenericError(err error) int {
	if h.isFileNotFoundError(err) {
		fmt.Fprintf(os.Stderr, "Error: File not found\n")
		fmt.Fprintf(os.Stderr, "Suggestion: Check if the file path is correct and the file exists\n")
		return 2
	}

	if h.isPermissionError(err) {
		fmt.Fprintf(os.Stderr, "Error: Permission denied\n")
		fmt.Fprintf(os.Stderr, "Suggestion: Check file permissions and ensure you have read access\n")
		return 2
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	if h.verbose {
		fmt.Fprintf(os.Stderr, "\nFor more details, check the logs or run with --verbose flag\n")
	}

	return 1
}

// getCategoryHelp returns category-specific help text
func (h *CLIErrorHandler) getCategoryHelp(category apperrors.ErrorCategory) string {
	switch category {
	case apperrors.CategoryIngestion:
		return `Input error help:
• Check if the file exists and is readable
• Supported formats are CSV (any common delimiter) and XLSX
• Supported encodings are UTF-8, Latin-1 and Windows-1252
• Make sure the table has at least one data row`

	case apperrors.CategorySchema:
		return `Table layout help:
• Use the shipped templates as a starting point ('sddgen template')
• Keep one column per field; optional columns may be omitted
• Headers can be renamed as long as they stay recognizable
• Headerless files must follow the template column order`

	case apperrors.CategoryValidation:
		return `Validation error help:
• Check that all required fields have values in the reported row
• Amounts must be positive numbers, comma or point decimals
• Dates must be YYYY-MM-DD or DD/MM/YYYY style
• Sequence types are FRST, RCUR, OOFF or FNAL`

	case apperrors.CategoryConfiguration:
		return `Configuration error help:
• Check your command-line flags and arguments
• Verify the YAML syntax if using --profile-file
• Use 'sddgen generate --help' to see all available options`

	case apperrors.CategoryConsistency:
		return `Consistency error help:
• The assembled message failed an internal cross-check
• No XML file was written
• Please report this with the input files that triggered it`

	default:
		return `For more help:
• Use 'sddgen --help' for general help
• Use 'sddgen generate --help' for command-specific help
• Run with --verbose for diagnostic output`
	}
}

func (h *CLIErrorHandler) isFileNotFoundError(err error) bool {
	return os.IsNotExist(err) || strings.Contains(err.Error(), "no such file or directory")
}

func (h *CLIErrorHandler) isPermissionError(err error) bool {
	return os.IsPermission(err) || strings.Contains(err.Error(), "permission denied")
}
