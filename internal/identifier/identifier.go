// Package identifier generates the message-level and transaction-level
// identifiers of a batch. Every identifier is a pure function of the
// generation timestamp, the flow id and the transaction sequence, so a
// rerun with a fixed clock reproduces the batch byte for byte.
package identifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tlf-hub/sdd-xml-generator/internal/models"
)

// Generator stamps identifiers for one batch. The timestamp is fixed at
// construction so every identifier of a batch carries the same epoch.
type Generator struct {
	now    time.Time
	flowID string
}

// NewGenerator returns a Generator stamping identifiers at the given
// time. flowID, when non-empty, is embedded in the message id to let
// the submitting bank channel distinguish flows.
func NewGenerator(now time.Time, flowID string) *Generator {
	return &Generator{now: now, flowID: strings.TrimSpace(flowID)}
}

// MessageID returns the message identifier,
// MSG-<unix>[-<flow>]-<suffix8>. The suffix is a name-based UUID over
// the timestamp and flow id, so identical runs reproduce the same id
// while distinct flows in the same second stay distinct.
func (g *Generator) MessageID() string {
	seed := fmt.Sprintf("%d/%s", g.now.Unix(), g.flowID)
	suffix := strings.ReplaceAll(uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String(), "-", "")[:8]
	if g.flowID != "" {
		return fmt.Sprintf("MSG-%d-%s-%s", g.now.Unix(), g.flowID, suffix)
	}
	return fmt.Sprintf("MSG-%d-%s", g.now.Unix(), suffix)
}

// PaymentInfoID returns the payment-information block identifier
func (g *Generator) PaymentInfoID() string {
	return fmt.Sprintf("PMTINF-%d", g.now.Unix())
}

// EndToEndID returns the end-to-end identifier of the n-th transaction
// of the batch (1-based). The sequence number is zero-padded so ids
// sort lexicographically in bank portals.
func (g *Generator) EndToEndID(n int) string {
	return fmt.Sprintf("E2E-%d-%04d", g.now.Unix(), n)
}

// MandateID resolves the mandate identifier of a transaction. A
// caller-supplied mandate reference wins; otherwise the company mandate
// prefix plus the debtor tax code; otherwise a generated fallback tied
// to the batch timestamp and sequence number.
func (g *Generator) MandateID(tx *models.DebtorTransaction, prefix string, n int) string {
	if tx.MandateID != "" {
		return tx.MandateID
	}
	if prefix != "" && tx.TaxCode != "" {
		return prefix + tx.TaxCode
	}
	return fmt.Sprintf("MNDT-%d-%04d", g.now.Unix(), n)
}

// Stamp assigns sequence numbers, end-to-end ids and mandate ids to
// every transaction of the slice, in order.
func (g *Generator) Stamp(txs []models.DebtorTransaction, mandatePrefix string) {
	for i := range txs {
		n := i + 1
		txs[i].Sequence = n
		txs[i].EndToEndID = g.EndToEndID(n)
		txs[i].MandateID = g.MandateID(&txs[i], mandatePrefix, n)
	}
}
