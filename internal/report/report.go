// Package report renders a compiled batch as a human- or
// machine-readable summary: message id, transaction count, control sum
// and one line per debtor.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/tlf-hub/sdd-xml-generator/internal/models"
	apperrors "github.com/tlf-hub/sdd-xml-generator/pkg/errors"
)

// OutputFormat selects a summary rendering
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON:
		return true
	}
	return false
}

// Summary is the serializable digest of a compiled batch
type Summary struct {
	MessageID      string       `json:"message_id"`
	PaymentInfoID  string       `json:"payment_info_id"`
	CollectionDate string       `json:"collection_date"`
	SequenceType   string       `json:"sequence_type"`
	Transactions   int          `json:"transactions"`
	ControlSum     string       `json:"control_sum"`
	Debtors        []DebtorLine `json:"debtors"`
}

// DebtorLine is one per-debtor row of the summary
type DebtorLine struct {
	Name       string `json:"name"`
	IBAN       string `json:"iban"`
	Amount     string `json:"amount"`
	MandateID  string `json:"mandate_id"`
	EndToEndID string `json:"end_to_end_id"`
}

// Summarize digests a batch into its summary
func Summarize(batch *models.CollectionBatch) *Summary {
	s := &Summary{
		MessageID:      batch.MessageID,
		PaymentInfoID:  batch.PaymentInfoID,
		CollectionDate: batch.CollectionDate,
		SequenceType:   batch.SequenceType.String(),
		Transactions:   batch.TransactionCount(),
		ControlSum:     batch.ControlSum().StringFixed(2),
		Debtors:        make([]DebtorLine, 0, len(batch.Transactions)),
	}
	for _, tx := range batch.Transactions {
		s.Debtors = append(s.Debtors, DebtorLine{
			Name:       tx.Name,
			IBAN:       tx.IBAN,
			Amount:     tx.Amount.StringFixed(2),
			MandateID:  tx.MandateID,
			EndToEndID: tx.EndToEndID,
		})
	}
	return s
}

// Write renders the summary of a batch in the requested format
func Write(w io.Writer, batch *models.CollectionBatch, format OutputFormat) error {
	summary := Summarize(batch)

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return apperrors.InternalError(apperrors.CodeUnexpectedError, "summary encoding", err)
		}
		return nil
	case FormatConsole:
		return writeConsole(w, summary)
	}
	return apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "summary_format", string(format)).
		WithSuggestion("valid formats are 'console' and 'json'")
}

func writeConsole(w io.Writer, s *Summary) error {
	var b strings.Builder

	b.WriteString("Collection batch summary\n")
	b.WriteString(strings.Repeat("=", 50) + "\n")
	fmt.Fprintf(&b, "Message ID:       %s\n", s.MessageID)
	fmt.Fprintf(&b, "Payment info ID:  %s\n", s.PaymentInfoID)
	fmt.Fprintf(&b, "Collection date:  %s\n", s.CollectionDate)
	fmt.Fprintf(&b, "Sequence type:    %s\n", s.SequenceType)
	fmt.Fprintf(&b, "Transactions:     %d\n", s.Transactions)
	fmt.Fprintf(&b, "Control sum:      EUR %s\n", s.ControlSum)

	if len(s.Debtors) > 0 {
		b.WriteString("\nDebtors:\n")
		for _, d := range s.Debtors {
			fmt.Fprintf(&b, "  %-30s %-27s EUR %12s  %s\n", d.Name, d.IBAN, d.Amount, d.MandateID)
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return apperrors.InternalError(apperrors.CodeUnexpectedError, "summary output", err)
	}
	return nil
}
