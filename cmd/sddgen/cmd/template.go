package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	apperrors "github.com/tlf-hub/sdd-xml-generator/pkg/errors"
)

const companyTemplate = `campo,valore
nome_azienda,NOME_AZIENDA_DA_MODIFICARE
iban,IT00A0000000000000000000000
creditor_id,IT00ZZZ000000000000
`

const rowsTemplate = `nome,cognome,iban,importo,causale,data_scadenza,rum,data_firma_mandato,tipo_sequenza
Mario,Rossi,IT60X0542811101000000123456,100.50,Pagamento fattura 001,2024-02-15,CLIENTE-001-2024,2024-01-10,RCUR
Laura,Bianchi,IT28W8000000292100645211208,250.00,Abbonamento mensile,2024-02-15,CLIENTE-002-2024,2024-01-12,RCUR
`

var templateDir string

// templateCmd represents the template command
var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Write the input CSV templates",
	Long: `Template writes the two starter CSV files: the company-profile
key/value table and the collection-rows table with sample debtors.

Example:
  sddgen template --output-dir ./templates`,
	RunE: runTemplate,
}

func init() {
	rootCmd.AddCommand(templateCmd)

	templateCmd.Flags().StringVarP(&templateDir, "output-dir", "d", ".", "directory for the template files")
}

func runTemplate(cmd *cobra.Command, args []string) error {
	handler := NewCLIErrorHandler()

	files := map[string]string{
		"template_dati_aziendali.csv": companyTemplate,
		"template_incassi_sdd.csv":    rowsTemplate,
	}
	for name, content := range files {
		path := filepath.Join(templateDir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			wrapped := apperrors.InternalError(apperrors.CodeUnexpectedError, "writing "+path, err).
				WithSuggestion("check that the output directory exists and is writable")
			os.Exit(handler.HandleError(wrapped))
		}
		fmt.Printf("Wrote %s\n", path)
	}
	return nil
}
