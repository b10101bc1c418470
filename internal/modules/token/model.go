// README: Verification token, QR payload and verification result types.
package token

import (
	"time"

	"openseat/internal/types"
)

const (
	ReasonRedeemed  = "Token already redeemed - rider has boarded"
	ReasonExpired   = "Token expired - contact support"
	ReasonUnpaid    = "Payment not confirmed - cannot board"
	ReasonCancelled = "Booking cancelled - cannot board"
	ReasonValid     = "Token valid - rider can board"
)

const (
	idPrefix   = "SEAT"
	DefaultTTL = 24 * time.Hour

	defaultNetwork  = "openseat-demo-blockchain"
	defaultVersion  = "1.0"
	defaultPlatform = "openseat"

	settlementGas    = "21000"
	blockNumberBase  = 1_000_000
	blockNumberRange = 1_000_000
)

// Subject is what a token attests to.
type Subject struct {
	BookingID types.ID
	TripID    types.ID
	RiderID   types.ID
	Amount    types.Money
}

type Token struct {
	ID              string
	BookingID       types.ID
	TripID          types.ID
	RiderID         types.ID
	Amount          types.Money
	BookingHash     string
	TransactionHash string
	Network         string
	Version         string
	BlockNumber     int64
	IssuedAt        time.Time
	ExpiresAt       time.Time
	RedeemedAt      *time.Time
	QRData          string
}

func (t *Token) subject() Subject {
	return Subject{BookingID: t.BookingID, TripID: t.TripID, RiderID: t.RiderID, Amount: t.Amount}
}

func (t *Token) clone() *Token {
	c := *t
	if t.RedeemedAt != nil {
		r := *t.RedeemedAt
		c.RedeemedAt = &r
	}
	return &c
}

// Facts are the booking-side inputs to verification.
type Facts struct {
	BookingID        types.ID
	Redeemed         bool
	Cancelled        bool
	PaymentConfirmed bool
}

type Result struct {
	Verified bool
	Reason   string
	Redeemed bool
	Expired  bool
	Token    *Token
}

// QRPayload is the compact document encoded in the rider's QR code.
type QRPayload struct {
	TokenID   string `json:"tokenId"`
	BookingID string `json:"bookingId"`
	Timestamp int64  `json:"timestamp"`
	Hash      string `json:"hash"`
	Platform  string `json:"platform"`
	Version   string `json:"version"`
}

type Settlement struct {
	Confirmed        bool
	BlockNumber      int64
	ConfirmationTime time.Duration
	GasUsed          string
	Status           string
}
