// README: Booking handlers: create, read, cancel, status changes, boarding scan and redemption.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"openseat/internal/apperr"
	"openseat/internal/modules/booking"
	"openseat/internal/modules/token"
	"openseat/internal/types"
)

type BookingHandler struct {
	bookings *booking.Service
	tokens   *token.Service
}

func NewBookingHandler(bookings *booking.Service, tokens *token.Service) *BookingHandler {
	return &BookingHandler{bookings: bookings, tokens: tokens}
}

type createBookingReq struct {
	TripID      string `json:"route_id"`
	Seats       int    `json:"seats_booked"`
	PickupStop  string `json:"pickup_location"`
	DropoffStop string `json:"dropoff_location"`
}

// Create handles POST /api/bookings.
func (h *BookingHandler) Create(c *gin.Context) {
	var req createBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if !isValidID(req.TripID) {
		writeError(c, http.StatusBadRequest, "invalid route_id")
		return
	}
	b, err := h.bookings.Create(c.Request.Context(), booking.CreateCommand{
		TripID:      types.ID(req.TripID),
		RiderID:     caller(c),
		Seats:       req.Seats,
		PickupStop:  strings.TrimSpace(req.PickupStop),
		DropoffStop: strings.TrimSpace(req.DropoffStop),
	})
	if err != nil {
		writeAppError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, bookingJSON(b))
}

// Get handles GET /api/bookings/:id.
func (h *BookingHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	d, err := h.bookings.Detail(c.Request.Context(), id, caller(c))
	if err != nil {
		writeAppError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, detailJSON(d))
}

// ListMine handles GET /api/bookings.
func (h *BookingHandler) ListMine(c *gin.Context) {
	list, err := h.bookings.ListRider(c.Request.Context(), caller(c))
	if err != nil {
		writeAppError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, bookingsJSON(list))
}

// Cancel handles POST /api/bookings/:id/cancel.
func (h *BookingHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	b, err := h.bookings.Cancel(c.Request.Context(), id, caller(c))
	if err != nil {
		writeAppError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, bookingJSON(b))
}

type statusReq struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /api/bookings/:id/status.
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		writeError(c, http.StatusBadRequest, "missing status")
		return
	}
	b, err := h.bookings.UpdateStatus(c.Request.Context(), booking.UpdateStatusCommand{
		BookingID: id,
		Status:    booking.Status(strings.ToUpper(req.Status)),
		ActorID:   caller(c),
	})
	if err != nil {
		writeAppError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, bookingJSON(b))
}

// Token handles GET /api/bookings/:id/token, the rider's boarding pass.
func (h *BookingHandler) Token(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	b, err := h.bookings.Get(c.Request.Context(), id, caller(c))
	if err != nil {
		writeAppError(c, err)
		return
	}
	t, err := h.tokens.Get(c.Request.Context(), b.ID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeError(c, http.StatusNotFound, "This booking does not have a verification token")
			return
		}
		writeAppError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, tokenJSON(t, h.tokens.ExplorerURL(t)))
}

// Verify handles GET /api/bookings/:id/verify. It never changes state.
func (h *BookingHandler) Verify(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.bookings.Get(ctx, id, caller(c)); err != nil {
		writeAppError(c, err)
		return
	}
	v, err := h.bookings.Verify(ctx, id)
	if err != nil {
		writeAppError(c, err)
		return
	}
	var tv *tokenView
	if v.Result.Token != nil {
		tv = tokenJSON(v.Result.Token, h.tokens.ExplorerURL(v.Result.Token))
	}
	writeJSON(c, http.StatusOK, gin.H{
		"verification": resultJSON(v.Result),
		"booking":      detailJSON(&v.Detail),
		"route_info":   v.RouteInfo,
		"token":        tv,
	})
}

type verifyTokenReq struct {
	TokenID string `json:"token_id"`
	QRData  string `json:"qr_data"`
}

// VerifyToken handles POST /api/bookings/:id/verify-token with a token id or
// a scanned QR payload.
func (h *BookingHandler) VerifyToken(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req verifyTokenReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	tokenID := strings.TrimSpace(req.TokenID)
	if tokenID == "" && req.QRData != "" {
		qr, err := token.ParseQR(req.QRData)
		if err != nil {
			writeAppError(c, err)
			return
		}
		if qr.BookingID != string(id) {
			writeError(c, http.StatusBadRequest, "Token does not match this booking")
			return
		}
		tokenID = qr.TokenID
	}
	if tokenID == "" {
		writeError(c, http.StatusBadRequest, "missing token_id or qr_data")
		return
	}
	ctx := c.Request.Context()
	if _, err := h.bookings.Get(ctx, id, caller(c)); err != nil {
		writeAppError(c, err)
		return
	}
	res, err := h.bookings.VerifyToken(ctx, id, tokenID)
	if err != nil {
		writeAppError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, resultJSON(res))
}

// Redeem handles POST /api/bookings/:id/redeem.
func (h *BookingHandler) Redeem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	r, err := h.bookings.Redeem(c.Request.Context(), id, caller(c))
	if err != nil {
		writeAppError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"message": "Boarding confirmed", "receipt": r})
}

type parseQRReq struct {
	Payload string `json:"qr_data"`
}

// ParseQR handles POST /api/tokens/parse.
func (h *BookingHandler) ParseQR(c *gin.Context) {
	var req parseQRReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Payload == "" {
		writeError(c, http.StatusBadRequest, "missing qr_data")
		return
	}
	qr, err := token.ParseQR(req.Payload)
	if err != nil {
		writeAppError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, qr)
}
