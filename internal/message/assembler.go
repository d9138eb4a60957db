package message

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tlf-hub/sdd-xml-generator/internal/models"
	"github.com/tlf-hub/sdd-xml-generator/internal/profile"
	apperrors "github.com/tlf-hub/sdd-xml-generator/pkg/errors"
	"github.com/tlf-hub/sdd-xml-generator/pkg/logger"
)

const (
	currencyEUR     = "EUR"
	paymentMethodDD = "DD"
	serviceLevel    = "SEPA"
	localInstrument = "CORE"
	// bicNotProvided is the clearing sentinel banks expect when the
	// debtor agent BIC is unknown
	bicNotProvided = "NOTPROVIDED"

	xsiNamespace = "http://www.w3.org/2001/XMLSchema-instance"

	creationTimeLayout = "2006-01-02T15:04:05"
	dateLayout         = "2006-01-02"
)

// Assemble serializes a consistent batch into the profile's XML wire
// form. The batch invariants are asserted before and the totals verified
// after building the tree, so no partial or drifting document is ever
// emitted.
func Assemble(batch *models.CollectionBatch, p profile.MessageProfile) ([]byte, error) {
	log := logger.GetGlobalLogger().WithComponent("message")

	if err := batch.CheckConsistency(); err != nil {
		return nil, err
	}

	hdr := buildGroupHeader(batch)
	pmt := buildPaymentInfo(batch, p)

	if err := verifyTotals(hdr, pmt); err != nil {
		return nil, err
	}

	var root interface{}
	switch p.RootElement {
	case "Document":
		root = Document{
			Xmlns:    p.Namespace,
			XmlnsXsi: xsiNamespace,
			Initn:    DirectDebitMsg{GrpHdr: hdr, PmtInf: pmt},
		}
	case "CBIBdySDDReq":
		root = CBIBody{
			Xmlns:    p.Namespace,
			XmlnsXsi: xsiNamespace,
			Envelope: CBIEnvelope{Msg: CBILogicalMsg{GrpHdr: hdr, PmtInf: pmt}},
		}
	default:
		return nil, apperrors.ConfigurationError(apperrors.CodeInvalidConfig,
			"root_element", p.RootElement)
	}

	body, err := xml.MarshalIndent(root, "", "  ")
	if err != nil {
		return nil, apperrors.InternalError(apperrors.CodeUnexpectedError, "xml serialization", err)
	}

	out := append([]byte(xml.Header), body...)
	out = append(out, '\n')
	if p.SuppressBlankLines {
		out = dropBlankLines(out)
	}

	log.WithFields(logger.Fields{
		"message_id": batch.MessageID,
		"profile":    p.Name,
		"bytes":      len(out),
	}).Info("Assembled collection message")

	return out, nil
}

// Filename returns the output file name convention of a profile,
// <prefix>_<unix-timestamp>.xml.
func Filename(p profile.MessageProfile, now time.Time) string {
	return fmt.Sprintf("%s_%d.xml", p.FilenamePrefix, now.Unix())
}

func buildGroupHeader(batch *models.CollectionBatch) GroupHeader {
	hdr := GroupHeader{
		MsgID:   batch.MessageID,
		CreDtTm: batch.CreationTime.Format(creationTimeLayout),
		NbOfTxs: batch.TransactionCount(),
		CtrlSum: batch.ControlSum().StringFixed(2),
		InitgPty: InitiatingParty{
			Nm: batch.Company.Name,
		},
	}
	if batch.Company.CreditorSchemeID != "" {
		hdr.InitgPty.ID = &PartyID{PrvtID: PrivateID{Othr: OtherID{
			ID:      batch.Company.CreditorSchemeID,
			SchmeNm: &SchemeName{Prtry: serviceLevel},
		}}}
	}
	return hdr
}

func buildPaymentInfo(batch *models.CollectionBatch, p profile.MessageProfile) PaymentInfo {
	pmt := PaymentInfo{
		PmtInfID:  batch.PaymentInfoID,
		PmtMtd:    paymentMethodDD,
		BtchBookg: true,
		NbOfTxs:   batch.TransactionCount(),
		CtrlSum:   batch.ControlSum().StringFixed(2),
		PmtTpInf: PaymentType{
			SvcLvl:    Code{Cd: serviceLevel},
			LclInstrm: Code{Cd: localInstrument},
			SeqTp:     batch.SequenceType.String(),
		},
		ReqdColltnDt: batch.CollectionDate,
		Cdtr:         Party{Nm: batch.Company.Name},
		CdtrAcct:     Account{ID: AccountID{IBAN: batch.Company.IBAN}},
		CdtrSchmeID: SchemeID{ID: PartyID{PrvtID: PrivateID{Othr: OtherID{
			ID:      batch.Company.CreditorSchemeID,
			SchmeNm: &SchemeName{Prtry: serviceLevel},
		}}}},
	}

	if batch.Company.Address != "" {
		pmt.Cdtr.PstlAdr = &PostalAddress{AdrLine: []string{batch.Company.Address}}
	}
	if batch.Company.ClearingCode != "" {
		pmt.CdtrAgt = &Agent{FinInstnID: FinInstitution{
			ClrSysMmbID: &ClearingMember{MmbID: batch.Company.ClearingCode},
		}}
	}

	pmt.Txs = make([]Transaction, 0, len(batch.Transactions))
	for _, tx := range batch.Transactions {
		pmt.Txs = append(pmt.Txs, buildTransaction(&tx, batch, p))
	}
	return pmt
}

func buildTransaction(tx *models.DebtorTransaction, batch *models.CollectionBatch, p profile.MessageProfile) Transaction {
	signature := tx.SignatureDate
	if signature == "" {
		signature = batch.CreationTime.Format(dateLayout)
	}

	out := Transaction{
		PmtID:    PaymentID{EndToEndID: tx.EndToEndID},
		InstdAmt: Amount{Ccy: currencyEUR, Value: tx.Amount.StringFixed(2)},
		DrctDbtTx: MandateWrapper{MndtRltdInf: Mandate{
			MndtID:    tx.MandateID,
			DtOfSgntr: signature,
		}},
		Dbtr:     Party{Nm: tx.Name},
		DbtrAcct: Account{ID: AccountID{IBAN: tx.IBAN}},
		RmtInf:   Remittance{Ustrd: p.Remittance.Format(tx.Sequence, tx.References)},
	}

	if tx.BIC != "" {
		out.DbtrAgt = Agent{FinInstnID: FinInstitution{BIC: tx.BIC}}
	} else {
		out.DbtrAgt = Agent{FinInstnID: FinInstitution{
			ClrSysMmbID: &ClearingMember{MmbID: bicNotProvided},
		}}
	}

	if lines := addressLines(tx); len(lines) > 0 || tx.Country != "" {
		out.Dbtr.PstlAdr = &PostalAddress{Ctry: tx.Country, AdrLine: lines}
	}
	if tx.TaxCode != "" {
		out.Dbtr.ID = &PartyID{PrvtID: PrivateID{Othr: OtherID{ID: tx.TaxCode}}}
	}
	return out
}

// addressLines renders the debtor address as free-form lines, street
// first, then "cap città (provincia)".
func addressLines(tx *models.DebtorTransaction) []string {
	var lines []string
	if tx.Address != "" {
		lines = append(lines, tx.Address)
	}
	locality := strings.TrimSpace(tx.PostalCode + " " + tx.City)
	if tx.Province != "" {
		locality = strings.TrimSpace(locality + " (" + tx.Province + ")")
	}
	if locality != "" {
		lines = append(lines, locality)
	}
	return lines
}

// verifyTotals re-derives the totals from the serialized transaction
// amounts and compares them to both headers. A mismatch is unreachable
// in correct operation and indicates an assembly bug.
func verifyTotals(hdr GroupHeader, pmt PaymentInfo) error {
	if hdr.NbOfTxs != len(pmt.Txs) || pmt.NbOfTxs != len(pmt.Txs) {
		return apperrors.ConsistencyError(apperrors.CodeControlSumMismatch,
			fmt.Sprintf("header counts %d/%d do not match %d transactions",
				hdr.NbOfTxs, pmt.NbOfTxs, len(pmt.Txs)))
	}

	sum := decimal.Zero
	for _, tx := range pmt.Txs {
		amount, err := decimal.NewFromString(tx.InstdAmt.Value)
		if err != nil {
			return apperrors.ConsistencyError(apperrors.CodeControlSumMismatch,
				fmt.Sprintf("unparseable serialized amount %q", tx.InstdAmt.Value))
		}
		sum = sum.Add(amount)
	}
	if got := sum.StringFixed(2); got != hdr.CtrlSum || got != pmt.CtrlSum {
		return apperrors.ConsistencyError(apperrors.CodeControlSumMismatch,
			fmt.Sprintf("serialized sum %s does not match headers %s/%s",
				got, hdr.CtrlSum, pmt.CtrlSum))
	}
	return nil
}

func dropBlankLines(data []byte) []byte {
	lines := bytes.Split(data, []byte("\n"))
	kept := lines[:0]
	for _, line := range lines {
		if len(bytes.TrimSpace(line)) > 0 {
			kept = append(kept, line)
		}
	}
	out := bytes.Join(kept, []byte("\n"))
	return append(out, '\n')
}
