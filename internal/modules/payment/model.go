// README: Payment record, gateway outcomes and redirect parameters.
package payment

import (
	"time"

	"openseat/internal/types"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSuccessful Status = "successful"
	StatusFailed     Status = "failed"
	StatusRefunded   Status = "refunded"
)

type Outcome string

const (
	OutcomeSuccessful Outcome = "successful"
	OutcomeFailed     Outcome = "failed"
)

// amountTolerance is the largest accepted gap, in major units, between a
// claimed amount and the booking total.
const amountTolerance = 0.01

type Payment struct {
	ID             types.ID
	BookingID      types.ID
	Amount         types.Money
	TransactionRef string
	ProviderRef    string
	Status         Status
	Method         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Callback is the gateway's report about one transaction.
type Callback struct {
	TransactionRef string
	Amount         types.Money
	Outcome        Outcome
	ProviderRef    string
}

// Webhook is the raw notification body posted by the gateway.
type Webhook struct {
	TransactionRef    string `json:"transaction_ref"`
	MerchantReference string `json:"MerchantReference"`
	ProviderRef       string `json:"interswitch_ref"`
	PaymentReference  string `json:"PaymentReference"`
	AmountKobo        int64  `json:"amount"`
	ResponseCode      string `json:"ResponseCode"`
	ResponseCodeLower string `json:"response_code"`
}

func (w Webhook) ref() string {
	if w.TransactionRef != "" {
		return w.TransactionRef
	}
	return w.MerchantReference
}

func (w Webhook) code() string {
	if w.ResponseCode != "" {
		return w.ResponseCode
	}
	return w.ResponseCodeLower
}

func (w Webhook) providerRef() string {
	if w.ProviderRef != "" {
		return w.ProviderRef
	}
	return w.PaymentReference
}

// PayParams are handed to the browser to start the hosted checkout.
type PayParams struct {
	MerchantCode    string `json:"merchant_code"`
	PayItemID       string `json:"pay_item_id"`
	PayItemName     string `json:"pay_item_name"`
	TxnRef          string `json:"txn_ref"`
	AmountKobo      int64  `json:"amount"`
	Currency        string `json:"currency"`
	SiteRedirectURL string `json:"site_redirect_url"`
	Hash            string `json:"hash"`
	CustomerID      string `json:"cust_id"`
	CustomerName    string `json:"cust_name"`
	Mode            string `json:"mode"`
	RedirectURL     string `json:"redirect_url"`
}

type Initiated struct {
	Payment *Payment
	Params  PayParams
}

// Verification is the outcome of querying the gateway for a transaction.
type Verification struct {
	Outcome             Outcome
	TransactionRef      string
	ProviderRef         string
	Amount              types.Money
	ResponseCode        string
	ResponseDescription string
	Verified            bool
	Error               string
}

type TestCard struct {
	CardNumber   string `json:"card_number"`
	CVV          string `json:"cvv"`
	Expiry       string `json:"expiry"`
	PIN          string `json:"pin"`
	Instructions string `json:"instructions"`
}

// SandboxCard is the gateway's published test card.
var SandboxCard = TestCard{
	CardNumber:   "5060990580000217499",
	CVV:          "123",
	Expiry:       "12/26",
	PIN:          "1234",
	Instructions: "Use these details for testing Interswitch payment",
}
