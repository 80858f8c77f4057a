package clients

import (
	"crypto/sha256"
	"encoding/hex"
)

const (
	PayPath       = "/pg/v1/pay"
	StatusPathFmt = "/pg/v1/status/%s/%s"

	HeaderVerify     = "X-VERIFY"
	HeaderMerchantID = "X-MERCHANT-ID"
)

// PayPayload is base64-encoded into PayRequest.Request.
type PayPayload struct {
	MerchantID            string            `json:"merchantId"`
	MerchantTransactionID string            `json:"merchantTransactionId"`
	MerchantUserID        string            `json:"merchantUserId"`
	Amount                int64             `json:"amount"`
	RedirectURL           string            `json:"redirectUrl"`
	RedirectMode          string            `json:"redirectMode"`
	CallbackURL           string            `json:"callbackUrl"`
	MobileNumber          string            `json:"mobileNumber,omitempty"`
	PaymentInstrument     PaymentInstrument `json:"paymentInstrument"`
}

type PaymentInstrument struct {
	Type string `json:"type"`
}

type PayRequest struct {
	Request string `json:"request"`
}

type GatewayResponse struct {
	Success bool         `json:"success"`
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Data    *GatewayData `json:"data,omitempty"`
}

type GatewayData struct {
	MerchantID            string              `json:"merchantId"`
	MerchantTransactionID string              `json:"merchantTransactionId"`
	TransactionID         string              `json:"transactionId,omitempty"`
	Amount                int64               `json:"amount,omitempty"`
	State                 string              `json:"state,omitempty"`
	ResponseCode          string              `json:"responseCode,omitempty"`
	InstrumentResponse    *InstrumentResponse `json:"instrumentResponse,omitempty"`
}

type InstrumentResponse struct {
	Type         string        `json:"type"`
	RedirectInfo *RedirectInfo `json:"redirectInfo,omitempty"`
}

type RedirectInfo struct {
	URL    string `json:"url"`
	Method string `json:"method"`
}

// Checksum is the X-VERIFY value: hex(sha256(payload + path + saltKey)) + "###" + saltIndex.
func Checksum(payload, path, saltKey, saltIndex string) string {
	sum := sha256.Sum256([]byte(payload + path + saltKey))
	return hex.EncodeToString(sum[:]) + "###" + saltIndex
}
