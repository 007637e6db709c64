package dto

import "github.com/ignatzorin/water-alert-backend/internal/sms"

type SMSFormatRequest struct {
	PinCode      string `json:"pin_code"`
	Problem      string `json:"problem"`
	SourceType   string `json:"source_type"`
	LocalityName string `json:"locality_name"`
	Description  string `json:"description"`
}

type SMSFormatResponse struct {
	Readable     string `json:"sms_format"`
	Compact      string `json:"sms_compact"`
	Instructions string `json:"instructions"`
}

// SMSInboundRequest: тело вебхука SMS-шлюза.
type SMSInboundRequest struct {
	From string `json:"from"`
	Text string `json:"text"`
}

type SMSInboundResponse struct {
	Format string         `json:"format_detected"`
	Report ReportResponse `json:"report"`
}

func ToSMSFormatResponse(f sms.Formatted) SMSFormatResponse {
	return SMSFormatResponse{
		Readable:     f.Readable,
		Compact:      f.Compact,
		Instructions: f.Instructions,
	}
}

type PincodeResponse struct {
	PinCode   string  `json:"pin_code"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Locality  string  `json:"locality"`
	District  string  `json:"district"`
}
