// README: Interswitch WebPay client: MAC helpers, redirect parameters and transaction queries.
package payment

import (
	"context"
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"openseat/internal/config"
)

const (
	refPrefix    = "OPENRIDE"
	currencyNGN  = "566"
	maxBodyBytes = 1 << 20
)

// Gateway reads transaction status from the payment provider.
type Gateway interface {
	Query(ctx context.Context, txnRef string, amountKobo int64) (TransactionStatus, error)
}

// TransactionStatus is the subset of the provider's query response we use.
type TransactionStatus struct {
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	PaymentReference    string `json:"PaymentReference"`
	Amount              int64  `json:"Amount"`
}

// Successful reports whether the provider considers the transaction paid.
func (s TransactionStatus) Successful() bool {
	return s.ResponseCode == "00" || s.ResponseCode == "10"
}

type Interswitch struct {
	cfg  config.InterswitchConfig
	http *http.Client
}

func NewInterswitch(cfg config.InterswitchConfig) *Interswitch {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Interswitch{cfg: cfg, http: &http.Client{Timeout: timeout}}
}

// NewTransactionRef returns OPENRIDE-<yyyymmddhhmmss>-<8 upper hex>.
func NewTransactionRef(now time.Time, entropy io.Reader) (string, error) {
	b := make([]byte, 4)
	if _, err := io.ReadFull(entropy, b); err != nil {
		return "", fmt.Errorf("transaction ref: %w", err)
	}
	return fmt.Sprintf("%s-%s-%s", refPrefix, now.UTC().Format("20060102150405"), strings.ToUpper(hex.EncodeToString(b))), nil
}

func sha512Hex(parts ...string) string {
	sum := sha512.Sum512([]byte(strings.Join(parts, "")))
	return hex.EncodeToString(sum[:])
}

// PayMAC signs a checkout request.
func PayMAC(txnRef, payItemID string, amountKobo int64, redirectURL, macKey string) string {
	return sha512Hex(txnRef, payItemID, strconv.FormatInt(amountKobo, 10), redirectURL, macKey)
}

// QueryHash signs a transaction status query.
func QueryHash(txnRef, macKey string) string {
	return sha512Hex(txnRef, macKey)
}

// WebhookSignature is the expected signature of a notification.
func WebhookSignature(merchantCode, txnRef string, amountKobo int64, macKey string) string {
	return sha512Hex(merchantCode, txnRef, strconv.FormatInt(amountKobo, 10), macKey)
}

// Params builds the signed checkout parameters and the redirect URL.
func (c *Interswitch) Params(txnRef string, amountKobo int64, customerID, customerName string) PayParams {
	p := PayParams{
		MerchantCode:    c.cfg.MerchantCode,
		PayItemID:       c.cfg.PayItemID,
		PayItemName:     c.cfg.PayItemName,
		TxnRef:          txnRef,
		AmountKobo:      amountKobo,
		Currency:        currencyNGN,
		SiteRedirectURL: c.cfg.RedirectURL,
		Hash:            PayMAC(txnRef, c.cfg.PayItemID, amountKobo, c.cfg.RedirectURL, c.cfg.MACKey),
		CustomerID:      customerID,
		CustomerName:    customerName,
		Mode:            c.cfg.Mode,
	}
	q := url.Values{}
	q.Set("merchant_code", p.MerchantCode)
	q.Set("pay_item_id", p.PayItemID)
	q.Set("txn_ref", p.TxnRef)
	q.Set("amount", strconv.FormatInt(p.AmountKobo, 10))
	q.Set("currency", p.Currency)
	q.Set("site_redirect_url", p.SiteRedirectURL)
	q.Set("hash", p.Hash)
	q.Set("cust_id", p.CustomerID)
	q.Set("cust_name", p.CustomerName)
	q.Set("pay_item_name", p.PayItemName)
	q.Set("mode", p.Mode)
	p.RedirectURL = c.cfg.PayURL + "?" + q.Encode()
	return p
}

func (c *Interswitch) VerifySignature(txnRef string, amountKobo int64, signature string) bool {
	return WebhookSignature(c.cfg.MerchantCode, txnRef, amountKobo, c.cfg.MACKey) == signature
}

// Query asks the provider for a transaction's status.
func (c *Interswitch) Query(ctx context.Context, txnRef string, amountKobo int64) (TransactionStatus, error) {
	q := url.Values{}
	q.Set("merchantcode", c.cfg.MerchantCode)
	q.Set("transactionreference", txnRef)
	if amountKobo > 0 {
		q.Set("amount", strconv.FormatInt(amountKobo, 10))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.VerifyURL+"?"+q.Encode(), nil)
	if err != nil {
		return TransactionStatus{}, fmt.Errorf("interswitch: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Hash", QueryHash(txnRef, c.cfg.MACKey))

	resp, err := c.http.Do(req)
	if err != nil {
		return TransactionStatus{}, fmt.Errorf("interswitch: do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return TransactionStatus{}, fmt.Errorf("interswitch: read response: %w", err)
	}
	var st TransactionStatus
	if err := json.Unmarshal(body, &st); err != nil {
		return TransactionStatus{}, fmt.Errorf("interswitch: unmarshal response (status %d): %w", resp.StatusCode, err)
	}
	return st, nil
}

var defaultEntropy io.Reader = rand.Reader
