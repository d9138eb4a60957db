package aggregate

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tlf-hub/sdd-xml-generator/internal/models"
)

func row(name, iban, amount, reference string) models.NormalizedRow {
	return models.NormalizedRow{
		Name:         name,
		IBAN:         iban,
		Amount:       decimal.RequireFromString(amount),
		Reference:    reference,
		DueDate:      "2024-02-15",
		SequenceType: models.SequenceRecurring,
	}
}

func TestByDebtor_MergesSameIBAN(t *testing.T) {
	rows := []models.NormalizedRow{
		row("Mario Rossi", "IT60X0542811101000000123456", "100.50", "Fattura 001"),
		row("Laura Bianchi", "IT28W8000000292100645211208", "250.00", "Abbonamento"),
		row("Mario Rossi", "IT60X0542811101000000123456", "50.00", "Fattura 002"),
	}

	txs := ByDebtor(rows)
	if len(txs) != 2 {
		t.Fatalf("got %d transactions, want 2", len(txs))
	}

	first := txs[0]
	if first.IBAN != "IT60X0542811101000000123456" {
		t.Errorf("first IBAN = %s, want first-appearance order preserved", first.IBAN)
	}
	if !first.Amount.Equal(decimal.RequireFromString("150.50")) {
		t.Errorf("merged amount = %s, want 150.50", first.Amount)
	}
	if len(first.References) != 2 || first.References[0] != "Fattura 001" || first.References[1] != "Fattura 002" {
		t.Errorf("references = %v, want [Fattura 001, Fattura 002]", first.References)
	}
}

func TestByDebtor_FirstSeenWinsIdentity(t *testing.T) {
	rows := []models.NormalizedRow{
		row("Mario Rossi", "IT60X0542811101000000123456", "10.00", "A"),
		row("M. Rossi", "IT60X0542811101000000123456", "20.00", "B"),
	}

	txs := ByDebtor(rows)
	if len(txs) != 1 {
		t.Fatalf("got %d transactions, want 1", len(txs))
	}
	if txs[0].Name != "Mario Rossi" {
		t.Errorf("name = %q, want the first row's spelling", txs[0].Name)
	}
}

func TestByDebtor_DuplicateReferencesKeptOnce(t *testing.T) {
	rows := []models.NormalizedRow{
		row("Mario Rossi", "IT60X0542811101000000123456", "10.00", "Canone"),
		row("Mario Rossi", "IT60X0542811101000000123456", "10.00", "Canone"),
	}

	txs := ByDebtor(rows)
	if len(txs[0].References) != 1 {
		t.Errorf("references = %v, want a single distinct entry", txs[0].References)
	}
	if !txs[0].Amount.Equal(decimal.RequireFromString("20.00")) {
		t.Errorf("amount = %s, want 20.00 (duplicates still sum)", txs[0].Amount)
	}
}

func TestByDebtor_MandateRefFirstSeen(t *testing.T) {
	a := row("Mario Rossi", "IT60X0542811101000000123456", "10.00", "A")
	b := row("Mario Rossi", "IT60X0542811101000000123456", "20.00", "B")
	b.MandateRef = "CLIENTE-001-2024"
	c := row("Mario Rossi", "IT60X0542811101000000123456", "30.00", "C")
	c.MandateRef = "CLIENTE-999-2024"

	txs := ByDebtor([]models.NormalizedRow{a, b, c})
	if txs[0].MandateID != "CLIENTE-001-2024" {
		t.Errorf("mandate id = %q, want the first non-empty reference", txs[0].MandateID)
	}
}

// Per-debtor totals must not depend on input row order: no amount may
// leak between groups under permutation.
func TestByDebtor_SumOrderInvariant(t *testing.T) {
	rows := []models.NormalizedRow{
		row("A", "IT01", "0.10", "r1"),
		row("B", "IT02", "1234.56", "r2"),
		row("A", "IT01", "99999.99", "r3"),
		row("C", "IT03", "0.01", "r4"),
		row("B", "IT02", "7.77", "r5"),
	}

	want := make(map[string]decimal.Decimal)
	for _, tx := range ByDebtor(rows) {
		want[tx.IBAN] = tx.Amount
	}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make([]models.NormalizedRow, len(rows))
		copy(shuffled, rows)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		txs := ByDebtor(shuffled)
		if len(txs) != len(want) {
			t.Fatalf("permutation %d: %d debtors, want %d", i, len(txs), len(want))
		}
		for _, tx := range txs {
			if !tx.Amount.Equal(want[tx.IBAN]) {
				t.Fatalf("permutation %d: %s = %s, want %s", i, tx.IBAN, tx.Amount, want[tx.IBAN])
			}
		}
	}
}

func TestByDebtor_Empty(t *testing.T) {
	if txs := ByDebtor(nil); len(txs) != 0 {
		t.Errorf("got %d transactions for no rows", len(txs))
	}
}
