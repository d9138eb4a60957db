package message

import "encoding/xml"

// CBIBody is the consortium root element wrapping the logical message
type CBIBody struct {
	XMLName  xml.Name    `xml:"CBIBdySDDReq"`
	Xmlns    string      `xml:"xmlns,attr"`
	XmlnsXsi string      `xml:"xmlns:xsi,attr"`
	Envelope CBIEnvelope `xml:"CBIEnvelSDDReqLogMsg"`
}

// CBIEnvelope is the physical-message envelope layer
type CBIEnvelope struct {
	Msg CBILogicalMsg `xml:"CBISDDReqLogMsg"`
}

// CBILogicalMsg carries the same group header and payment block as the
// ISO document
type CBILogicalMsg struct {
	GrpHdr GroupHeader `xml:"GrpHdr"`
	PmtInf PaymentInfo `xml:"PmtInf"`
}
