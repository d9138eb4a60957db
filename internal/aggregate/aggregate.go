// Package aggregate merges collection rows that target the same debtor
// account into single transactions. The debtor IBAN is the grouping key;
// it is the only field that reliably identifies a debtor across rows with
// duplicate or differently-spelled names. Two people sharing a joint
// account therefore merge under the first-seen identity, a documented
// limitation of the format.
package aggregate

import (
	"github.com/shopspring/decimal"

	"github.com/tlf-hub/sdd-xml-generator/internal/models"
	"github.com/tlf-hub/sdd-xml-generator/pkg/logger"
)

// ByDebtor groups normalized rows by debtor IBAN, in first-appearance
// order. Amounts are summed exactly; references are deduplicated keeping
// first-occurrence order; every other field takes the first row's value.
func ByDebtor(rows []models.NormalizedRow) []models.DebtorTransaction {
	log := logger.GetGlobalLogger().WithComponent("aggregate")

	index := make(map[string]int, len(rows))
	transactions := make([]models.DebtorTransaction, 0, len(rows))

	for _, row := range rows {
		pos, seen := index[row.IBAN]
		if !seen {
			index[row.IBAN] = len(transactions)
			transactions = append(transactions, models.DebtorTransaction{
				Name:          row.Name,
				TaxCode:       row.TaxCode,
				Address:       row.Address,
				PostalCode:    row.PostalCode,
				City:          row.City,
				Province:      row.Province,
				Country:       row.Country,
				IBAN:          row.IBAN,
				BIC:           row.BIC,
				Amount:        decimal.Zero,
				SignatureDate: row.SignatureDate,
				SequenceType:  row.SequenceType,
			})
			pos = len(transactions) - 1
		}

		tx := &transactions[pos]
		tx.Amount = tx.Amount.Add(row.Amount)
		tx.References = appendDistinct(tx.References, row.Reference)

		// The caller-supplied mandate reference follows first-seen-wins
		// like the identity fields.
		if tx.MandateID == "" && row.MandateRef != "" {
			tx.MandateID = row.MandateRef
		}
	}

	log.WithFields(logger.Fields{
		"rows":    len(rows),
		"debtors": len(transactions),
	}).Debug("Aggregated rows by debtor IBAN")

	return transactions
}

func appendDistinct(list []string, value string) []string {
	if value == "" {
		return list
	}
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}
