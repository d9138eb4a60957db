package message

import (
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tlf-hub/sdd-xml-generator/internal/models"
	"github.com/tlf-hub/sdd-xml-generator/internal/profile"
	apperrors "github.com/tlf-hub/sdd-xml-generator/pkg/errors"
)

func testBatch() *models.CollectionBatch {
	return &models.CollectionBatch{
		Company: models.CompanyProfile{
			Name:             "Acme SRL",
			IBAN:             "IT60X0542811101000000123456",
			CreditorSchemeID: "IT99ZZZ1234567890",
		},
		MessageID:      "MSG-1706000000-abcd1234",
		PaymentInfoID:  "PMTINF-1706000000",
		CreationTime:   time.Date(2024, 1, 23, 10, 13, 20, 0, time.UTC),
		CollectionDate: "2024-02-15",
		SequenceType:   models.SequenceRecurring,
		Transactions: []models.DebtorTransaction{
			{
				Name:          "Mario Rossi",
				IBAN:          "IT28W8000000292100645211208",
				Amount:        decimal.RequireFromString("150.50"),
				References:    []string{"Fattura 001", "Fattura 002"},
				SignatureDate: "2024-01-10",
				MandateID:     "CLIENTE-001-2024",
				EndToEndID:    "E2E-1706000000-0001",
				Sequence:      1,
			},
		},
	}
}

func TestAssemble_ISO(t *testing.T) {
	out, err := Assemble(testBatch(), profile.ISO)
	if err != nil {
		t.Fatalf("Assemble() unexpected error: %v", err)
	}
	xmlStr := string(out)

	if !strings.HasPrefix(xmlStr, xml.Header) {
		t.Error("output must start with the UTF-8 XML declaration")
	}

	var doc Document
	if err := xml.Unmarshal(out, &doc); err != nil {
		t.Fatalf("output is not well-formed: %v", err)
	}

	if !strings.Contains(xmlStr, `xmlns="urn:iso:std:iso:20022:tech:xsd:pain.008.001.02"`) {
		t.Error("missing pain.008.001.02 namespace")
	}
	if doc.Initn.GrpHdr.NbOfTxs != 1 {
		t.Errorf("GrpHdr NbOfTxs = %d, want 1", doc.Initn.GrpHdr.NbOfTxs)
	}
	if doc.Initn.GrpHdr.CtrlSum != "150.50" {
		t.Errorf("GrpHdr CtrlSum = %s, want 150.50", doc.Initn.GrpHdr.CtrlSum)
	}
	if doc.Initn.PmtInf.CtrlSum != "150.50" {
		t.Errorf("PmtInf CtrlSum = %s, want 150.50", doc.Initn.PmtInf.CtrlSum)
	}

	pmt := doc.Initn.PmtInf
	if pmt.PmtMtd != "DD" {
		t.Errorf("PmtMtd = %s, want DD", pmt.PmtMtd)
	}
	if pmt.PmtTpInf.SvcLvl.Cd != "SEPA" || pmt.PmtTpInf.LclInstrm.Cd != "CORE" {
		t.Errorf("service level = %s/%s, want SEPA/CORE", pmt.PmtTpInf.SvcLvl.Cd, pmt.PmtTpInf.LclInstrm.Cd)
	}
	if pmt.PmtTpInf.SeqTp != "RCUR" {
		t.Errorf("SeqTp = %s, want RCUR", pmt.PmtTpInf.SeqTp)
	}
	if pmt.ReqdColltnDt != "2024-02-15" {
		t.Errorf("ReqdColltnDt = %s", pmt.ReqdColltnDt)
	}
	if pmt.CdtrSchmeID.ID.PrvtID.Othr.ID != "IT99ZZZ1234567890" {
		t.Errorf("creditor scheme id = %s", pmt.CdtrSchmeID.ID.PrvtID.Othr.ID)
	}
	if pmt.CdtrSchmeID.ID.PrvtID.Othr.SchmeNm.Prtry != "SEPA" {
		t.Error("creditor scheme name must be SEPA")
	}

	tx := pmt.Txs[0]
	if tx.InstdAmt.Value != "150.50" || tx.InstdAmt.Ccy != "EUR" {
		t.Errorf("InstdAmt = %s %s, want 150.50 EUR", tx.InstdAmt.Value, tx.InstdAmt.Ccy)
	}
	if tx.DbtrAgt.FinInstnID.ClrSysMmbID == nil || tx.DbtrAgt.FinInstnID.ClrSysMmbID.MmbID != "NOTPROVIDED" {
		t.Error("debtor agent without BIC must carry the NOTPROVIDED sentinel")
	}
	if tx.DrctDbtTx.MndtRltdInf.MndtID != "CLIENTE-001-2024" {
		t.Errorf("MndtId = %s", tx.DrctDbtTx.MndtRltdInf.MndtID)
	}
	if tx.DrctDbtTx.MndtRltdInf.DtOfSgntr != "2024-01-10" {
		t.Errorf("DtOfSgntr = %s", tx.DrctDbtTx.MndtRltdInf.DtOfSgntr)
	}
	if tx.RmtInf.Ustrd != "Fattura 001; Fattura 002" {
		t.Errorf("Ustrd = %q", tx.RmtInf.Ustrd)
	}
}

func TestAssemble_CBIEnvelope(t *testing.T) {
	out, err := Assemble(testBatch(), profile.CBI)
	if err != nil {
		t.Fatalf("Assemble() unexpected error: %v", err)
	}
	xmlStr := string(out)

	if !strings.Contains(xmlStr, "<CBIBdySDDReq") {
		t.Error("missing CBIBdySDDReq root")
	}
	if !strings.Contains(xmlStr, `xmlns="urn:CBI:xsd:CBIBdySDDReq.00.01.00"`) {
		t.Error("missing CBI namespace")
	}

	var body CBIBody
	if err := xml.Unmarshal(out, &body); err != nil {
		t.Fatalf("output is not well-formed: %v", err)
	}
	if body.Envelope.Msg.GrpHdr.MsgID != "MSG-1706000000-abcd1234" {
		t.Errorf("MsgId = %s", body.Envelope.Msg.GrpHdr.MsgID)
	}
	if got := body.Envelope.Msg.PmtInf.Txs[0].RmtInf.Ustrd; got != "0001 - Fattura 001; Fattura 002" {
		t.Errorf("Ustrd = %q, want the zero-padded sequence prefix", got)
	}
	for _, line := range strings.Split(strings.TrimRight(xmlStr, "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			t.Fatal("blank line in CBI output")
		}
	}
}

func TestAssemble_BICUsedWhenPresent(t *testing.T) {
	batch := testBatch()
	batch.Transactions[0].BIC = "BCITITMM"

	out, err := Assemble(batch, profile.ISO)
	if err != nil {
		t.Fatalf("Assemble() unexpected error: %v", err)
	}

	var doc Document
	if err := xml.Unmarshal(out, &doc); err != nil {
		t.Fatal(err)
	}
	agt := doc.Initn.PmtInf.Txs[0].DbtrAgt.FinInstnID
	if agt.BIC != "BCITITMM" {
		t.Errorf("BIC = %q, want BCITITMM", agt.BIC)
	}
	if agt.ClrSysMmbID != nil {
		t.Error("sentinel must be absent when a BIC is known")
	}
}

func TestAssemble_DebtorAddressAndTaxCode(t *testing.T) {
	batch := testBatch()
	tx := &batch.Transactions[0]
	tx.TaxCode = "RSSMRA80A01H501U"
	tx.Address = "Via Roma 1"
	tx.PostalCode = "00100"
	tx.City = "Roma"
	tx.Province = "RM"
	tx.Country = "IT"

	out, err := Assemble(batch, profile.ISO)
	if err != nil {
		t.Fatalf("Assemble() unexpected error: %v", err)
	}

	var doc Document
	if err := xml.Unmarshal(out, &doc); err != nil {
		t.Fatal(err)
	}
	dbtr := doc.Initn.PmtInf.Txs[0].Dbtr
	if dbtr.ID == nil || dbtr.ID.PrvtID.Othr.ID != "RSSMRA80A01H501U" {
		t.Error("debtor tax code missing")
	}
	if dbtr.PstlAdr == nil || dbtr.PstlAdr.Ctry != "IT" {
		t.Fatal("debtor postal address missing")
	}
	if len(dbtr.PstlAdr.AdrLine) != 2 || dbtr.PstlAdr.AdrLine[1] != "00100 Roma (RM)" {
		t.Errorf("AdrLine = %v", dbtr.PstlAdr.AdrLine)
	}
}

func TestAssemble_CreditorClearingCode(t *testing.T) {
	batch := testBatch()
	batch.Company.ClearingCode = "05428"

	out, err := Assemble(batch, profile.ISO)
	if err != nil {
		t.Fatalf("Assemble() unexpected error: %v", err)
	}

	var doc Document
	if err := xml.Unmarshal(out, &doc); err != nil {
		t.Fatal(err)
	}
	agt := doc.Initn.PmtInf.CdtrAgt
	if agt == nil || agt.FinInstnID.ClrSysMmbID == nil || agt.FinInstnID.ClrSysMmbID.MmbID != "05428" {
		t.Error("creditor agent clearing member id missing")
	}
}

func TestAssemble_DuplicateEndToEndRejected(t *testing.T) {
	batch := testBatch()
	dup := batch.Transactions[0]
	batch.Transactions = append(batch.Transactions, dup)

	_, err := Assemble(batch, profile.ISO)
	genErr, ok := apperrors.AsGeneratorError(err)
	if !ok {
		t.Fatal("expected a GeneratorError")
	}
	if genErr.Code != apperrors.CodeDuplicateEndToEnd {
		t.Errorf("Code = %s, want %s", genErr.Code, apperrors.CodeDuplicateEndToEnd)
	}
}

func TestAssemble_UnknownRootElement(t *testing.T) {
	p := profile.ISO
	p.RootElement = "Krazy"

	_, err := Assemble(testBatch(), p)
	genErr, ok := apperrors.AsGeneratorError(err)
	if !ok {
		t.Fatal("expected a GeneratorError")
	}
	if genErr.Category != apperrors.CategoryConfiguration {
		t.Errorf("Category = %s, want configuration", genErr.Category)
	}
}

func TestFilename(t *testing.T) {
	now := time.Unix(1706000000, 0)
	if got := Filename(profile.ISO, now); got != "SEPA_SDD_1706000000.xml" {
		t.Errorf("Filename() = %q", got)
	}
	if got := Filename(profile.CBI, now); got != "CBI_SDD_1706000000.xml" {
		t.Errorf("Filename() = %q", got)
	}
}
