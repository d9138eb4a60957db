// Package message assembles the collection batch into its XML wire form.
// The element trees mirror the pain.008.001.02 layout; the CBI variant
// reuses the same payment block inside the consortium envelope.
package message

import "encoding/xml"

// Document is the ISO 20022 root element
type Document struct {
	XMLName  xml.Name       `xml:"Document"`
	Xmlns    string         `xml:"xmlns,attr"`
	XmlnsXsi string         `xml:"xmlns:xsi,attr"`
	Initn    DirectDebitMsg `xml:"CstmrDrctDbtInitn"`
}

// DirectDebitMsg is the customer direct debit initiation message
type DirectDebitMsg struct {
	GrpHdr GroupHeader `xml:"GrpHdr"`
	PmtInf PaymentInfo `xml:"PmtInf"`
}

// GroupHeader carries the message identification and batch totals
type GroupHeader struct {
	MsgID    string          `xml:"MsgId"`
	CreDtTm  string          `xml:"CreDtTm"`
	NbOfTxs  int             `xml:"NbOfTxs"`
	CtrlSum  string          `xml:"CtrlSum"`
	InitgPty InitiatingParty `xml:"InitgPty"`
}

// InitiatingParty names the submitting creditor; the scheme id is
// optional and mirrors the creditor scheme identifier.
type InitiatingParty struct {
	Nm string   `xml:"Nm"`
	ID *PartyID `xml:"Id,omitempty"`
}

// PartyID wraps the private-identification branch of a party id
type PartyID struct {
	PrvtID PrivateID `xml:"PrvtId"`
}

// PrivateID holds the generic other-identification entry
type PrivateID struct {
	Othr OtherID `xml:"Othr"`
}

// OtherID is an identifier with its scheme name
type OtherID struct {
	ID      string      `xml:"Id"`
	SchmeNm *SchemeName `xml:"SchmeNm,omitempty"`
}

// SchemeName carries the proprietary scheme tag, "SEPA" for SDD
type SchemeName struct {
	Prtry string `xml:"Prtry"`
}

// PaymentInfo is the single payment-information block of a batch
type PaymentInfo struct {
	PmtInfID     string        `xml:"PmtInfId"`
	PmtMtd       string        `xml:"PmtMtd"`
	BtchBookg    bool          `xml:"BtchBookg"`
	NbOfTxs      int           `xml:"NbOfTxs"`
	CtrlSum      string        `xml:"CtrlSum"`
	PmtTpInf     PaymentType   `xml:"PmtTpInf"`
	ReqdColltnDt string        `xml:"ReqdColltnDt"`
	Cdtr         Party         `xml:"Cdtr"`
	CdtrAcct     Account       `xml:"CdtrAcct"`
	CdtrAgt      *Agent        `xml:"CdtrAgt,omitempty"`
	CdtrSchmeID  SchemeID      `xml:"CdtrSchmeId"`
	Txs          []Transaction `xml:"DrctDbtTxInf"`
}

// PaymentType fixes the SEPA CORE service level and the sequence type
type PaymentType struct {
	SvcLvl    Code   `xml:"SvcLvl"`
	LclInstrm Code   `xml:"LclInstrm"`
	SeqTp     string `xml:"SeqTp"`
}

// Code is a coded value element
type Code struct {
	Cd string `xml:"Cd"`
}

// Party is a named party with optional postal address and identification
type Party struct {
	Nm      string         `xml:"Nm"`
	PstlAdr *PostalAddress `xml:"PstlAdr,omitempty"`
	ID      *PartyID       `xml:"Id,omitempty"`
}

// PostalAddress renders an address as country plus free address lines
type PostalAddress struct {
	Ctry    string   `xml:"Ctry,omitempty"`
	AdrLine []string `xml:"AdrLine,omitempty"`
}

// Account identifies an account by IBAN
type Account struct {
	ID AccountID `xml:"Id"`
}

// AccountID holds the IBAN of an account
type AccountID struct {
	IBAN string `xml:"IBAN"`
}

// Agent is a financial institution, identified by BIC or by a clearing
// system member id. The NOTPROVIDED sentinel goes through the member id.
type Agent struct {
	FinInstnID FinInstitution `xml:"FinInstnId"`
}

// FinInstitution carries either a BIC or a clearing member id
type FinInstitution struct {
	BIC         string          `xml:"BIC,omitempty"`
	ClrSysMmbID *ClearingMember `xml:"ClrSysMmbId,omitempty"`
}

// ClearingMember holds a national clearing system member id
type ClearingMember struct {
	MmbID string `xml:"MmbId"`
}

// SchemeID is the creditor scheme identification block
type SchemeID struct {
	ID PartyID `xml:"Id"`
}

// Transaction is one direct debit transaction block
type Transaction struct {
	PmtID     PaymentID      `xml:"PmtId"`
	InstdAmt  Amount         `xml:"InstdAmt"`
	DrctDbtTx MandateWrapper `xml:"DrctDbtTx"`
	DbtrAgt   Agent          `xml:"DbtrAgt"`
	Dbtr      Party          `xml:"Dbtr"`
	DbtrAcct  Account        `xml:"DbtrAcct"`
	RmtInf    Remittance     `xml:"RmtInf"`
}

// PaymentID carries the end-to-end identifier
type PaymentID struct {
	EndToEndID string `xml:"EndToEndId"`
}

// Amount is an instructed amount with its currency attribute
type Amount struct {
	Ccy   string `xml:"Ccy,attr"`
	Value string `xml:",chardata"`
}

// MandateWrapper nests the mandate-related information
type MandateWrapper struct {
	MndtRltdInf Mandate `xml:"MndtRltdInf"`
}

// Mandate carries the mandate reference and its signature date
type Mandate struct {
	MndtID    string `xml:"MndtId"`
	DtOfSgntr string `xml:"DtOfSgntr"`
}

// Remittance holds the unstructured remittance text
type Remittance struct {
	Ustrd string `xml:"Ustrd"`
}
