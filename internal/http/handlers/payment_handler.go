// README: Payment handlers: checkout, gateway return and webhook, verification.
package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"openseat/internal/modules/payment"
	"openseat/internal/types"
)

const (
	headerWebhookSignature = "X-Interswitch-Signature"
	maxWebhookBytes        = 64 << 10
)

type PaymentHandler struct {
	payments *payment.Service
}

func NewPaymentHandler(svc *payment.Service) *PaymentHandler {
	return &PaymentHandler{payments: svc}
}

type initiateReq struct {
	BookingID string  `json:"booking_id"`
	Amount    float64 `json:"amount"`
	Method    string  `json:"payment_method"`
}

// Initiate handles POST /api/payments/initiate.
func (h *PaymentHandler) Initiate(c *gin.Context) {
	var req initiateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if !isValidID(req.BookingID) {
		writeError(c, http.StatusBadRequest, "invalid booking_id")
		return
	}
	in, err := h.payments.Initiate(c.Request.Context(), payment.InitiateCommand{
		BookingID: types.ID(req.BookingID),
		RiderID:   caller(c),
		Amount:    types.FromMajor(req.Amount, types.CurrencyNGN),
		Method:    strings.TrimSpace(req.Method),
	})
	if err != nil {
		writeAppError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{
		"payment":        paymentJSON(in.Payment),
		"payment_params": in.Params,
		"redirect_url":   in.Params.RedirectURL,
	})
}

// Verify handles GET /api/payments/verify/:ref.
func (h *PaymentHandler) Verify(c *gin.Context) {
	ref := strings.TrimSpace(c.Param("ref"))
	if ref == "" {
		writeError(c, http.StatusBadRequest, "missing transaction reference")
		return
	}
	v, err := h.payments.VerifyTransaction(c.Request.Context(), ref)
	if err != nil {
		writeAppError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, verificationJSON(v))
}

type callbackReq struct {
	TxnRef         string `json:"txnref" form:"txnref"`
	TransactionRef string `json:"transaction_ref" form:"transaction_ref"`
}

func (r callbackReq) ref() string {
	if r.TxnRef != "" {
		return r.TxnRef
	}
	return r.TransactionRef
}

// Callback handles POST /api/payments/callback, the gateway's browser return.
// The claimed outcome is never trusted: the transaction is re-queried.
func (h *PaymentHandler) Callback(c *gin.Context) {
	var req callbackReq
	if err := c.ShouldBind(&req); err != nil || req.ref() == "" {
		writeError(c, http.StatusBadRequest, "missing transaction reference")
		return
	}
	v, err := h.payments.VerifyTransaction(c.Request.Context(), req.ref())
	if err != nil {
		writeAppError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, verificationJSON(v))
}

// Webhook handles POST /api/payments/webhook.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes)
	var w payment.Webhook
	if err := c.ShouldBindJSON(&w); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(c, http.StatusBadRequest, "empty webhook body")
			return
		}
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	p, err := h.payments.HandleWebhook(c.Request.Context(), w, c.GetHeader(headerWebhookSignature))
	if err != nil {
		writeAppError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "received", "payment": paymentJSON(p)})
}

// ForBooking handles GET /api/payments/booking/:id.
func (h *PaymentHandler) ForBooking(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.payments.ForBooking(c.Request.Context(), id, caller(c))
	if err != nil {
		writeAppError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, paymentJSON(p))
}

// TestCard handles GET /api/payments/test-card.
func (h *PaymentHandler) TestCard(c *gin.Context) {
	writeJSON(c, http.StatusOK, payment.SandboxCard)
}
