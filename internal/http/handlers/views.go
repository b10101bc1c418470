// README: JSON views of domain records returned by the API.
package handlers

import (
	"time"

	"openseat/internal/modules/booking"
	"openseat/internal/modules/matching"
	"openseat/internal/modules/payment"
	"openseat/internal/modules/token"
	"openseat/internal/modules/trip"
	"openseat/internal/modules/user"
	"openseat/internal/types"
)

type moneyView struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

func money(m types.Money) moneyView {
	return moneyView{Amount: m.Major(), Currency: m.Currency}
}

type tripView struct {
	ID             types.ID  `json:"id"`
	DriverID       types.ID  `json:"driver_id"`
	VehicleID      types.ID  `json:"vehicle_id"`
	StartLocation  string    `json:"start_location"`
	EndLocation    string    `json:"end_location"`
	Stops          []string  `json:"stops"`
	DepartureDate  string    `json:"departure_date"`
	DepartureTime  string    `json:"departure_time"`
	TotalSeats     int       `json:"total_seats"`
	AvailableSeats int       `json:"available_seats"`
	PricePerSeat   moneyView `json:"price_per_seat"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

func tripJSON(t *trip.Trip) tripView {
	stops := t.Stops
	if stops == nil {
		stops = []string{}
	}
	return tripView{
		ID:             t.ID,
		DriverID:       t.DriverID,
		VehicleID:      t.VehicleID,
		StartLocation:  t.StartLocation,
		EndLocation:    t.EndLocation,
		Stops:          stops,
		DepartureDate:  t.DepartureDate.Format(dateLayout),
		DepartureTime:  t.DepartureTime,
		TotalSeats:     t.TotalSeats,
		AvailableSeats: t.AvailableSeats,
		PricePerSeat:   money(t.PricePerSeat),
		Status:         string(t.Status),
		CreatedAt:      t.CreatedAt,
	}
}

type vehicleView struct {
	ID          types.ID `json:"id"`
	Description string   `json:"description"`
	PlateNumber string   `json:"plate_number"`
	TotalSeats  int      `json:"total_seats"`
	Verified    bool     `json:"verified"`
}

func vehicleJSON(v *trip.Vehicle) vehicleView {
	return vehicleView{ID: v.ID, Description: v.Description(), PlateNumber: v.PlateNumber, TotalSeats: v.TotalSeats, Verified: v.Verified}
}

type matchView struct {
	Trip         tripView           `json:"trip"`
	Score        float64            `json:"match_score"`
	Breakdown    matching.Breakdown `json:"match_breakdown"`
	Reasons      []string           `json:"match_reasons"`
	Confidence   string             `json:"confidence"`
	DriverRating float64            `json:"driver_rating"`
	Verified     bool               `json:"driver_verified"`
}

func matchJSON(m matching.Match) matchView {
	return matchView{
		Trip:         tripJSON(m.Candidate.Trip),
		Score:        m.Score,
		Breakdown:    m.Breakdown,
		Reasons:      m.Reasons,
		Confidence:   m.Confidence,
		DriverRating: m.Candidate.DriverRating,
		Verified:     m.Candidate.Verified,
	}
}

type bookingView struct {
	ID            types.ID   `json:"id"`
	TripID        types.ID   `json:"trip_id"`
	RiderID       types.ID   `json:"rider_id"`
	SeatsBooked   int        `json:"seats_booked"`
	TotalAmount   moneyView  `json:"total_amount"`
	PickupStop    string     `json:"pickup_stop"`
	DropoffStop   string     `json:"dropoff_stop"`
	PaymentStatus string     `json:"payment_status"`
	Status        string     `json:"status"`
	TokenID       string     `json:"token_id,omitempty"`
	RedeemedAt    *time.Time `json:"redeemed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func bookingJSON(b *booking.Booking) bookingView {
	return bookingView{
		ID:            b.ID,
		TripID:        b.TripID,
		RiderID:       b.RiderID,
		SeatsBooked:   b.SeatsBooked,
		TotalAmount:   money(b.TotalAmount),
		PickupStop:    b.PickupStop,
		DropoffStop:   b.DropoffStop,
		PaymentStatus: string(b.PaymentStatus),
		Status:        string(b.Status),
		TokenID:       b.TokenID,
		RedeemedAt:    b.RedeemedAt,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func bookingsJSON(in []*booking.Booking) []bookingView {
	out := make([]bookingView, 0, len(in))
	for _, b := range in {
		out = append(out, bookingJSON(b))
	}
	return out
}

type detailView struct {
	bookingView
	RiderName   string `json:"rider_name"`
	DriverName  string `json:"driver_name"`
	DriverPhone string `json:"driver_phone"`
	VehicleInfo string `json:"vehicle_info"`
	From        string `json:"from"`
	To          string `json:"to"`
	Departure   string `json:"departure"`
}

func detailJSON(d *booking.Detail) detailView {
	return detailView{
		bookingView: bookingJSON(d.Booking),
		RiderName:   d.RiderName,
		DriverName:  d.DriverName,
		DriverPhone: d.DriverPhone,
		VehicleInfo: d.VehicleInfo,
		From:        d.From,
		To:          d.To,
		Departure:   d.Departure,
	}
}

type tokenView struct {
	TokenID         string    `json:"token_id"`
	BookingID       types.ID  `json:"booking_id"`
	BookingHash     string    `json:"booking_hash"`
	TransactionHash string    `json:"transaction_hash"`
	Network         string    `json:"network"`
	BlockNumber     int64     `json:"block_number"`
	IssuedAt        time.Time `json:"issued_at"`
	ExpiresAt       time.Time `json:"expires_at"`
	QRData          string    `json:"qr_data"`
	ExplorerURL     string    `json:"explorer_url"`
}

func tokenJSON(t *token.Token, explorer string) *tokenView {
	if t == nil {
		return nil
	}
	return &tokenView{
		TokenID:         t.ID,
		BookingID:       t.BookingID,
		BookingHash:     t.BookingHash,
		TransactionHash: t.TransactionHash,
		Network:         t.Network,
		BlockNumber:     t.BlockNumber,
		IssuedAt:        t.IssuedAt,
		ExpiresAt:       t.ExpiresAt,
		QRData:          t.QRData,
		ExplorerURL:     explorer,
	}
}

type resultView struct {
	Verified bool   `json:"verified"`
	Reason   string `json:"reason"`
	Redeemed bool   `json:"redeemed"`
	Expired  bool   `json:"expired"`
}

func resultJSON(r token.Result) resultView {
	return resultView{Verified: r.Verified, Reason: r.Reason, Redeemed: r.Redeemed, Expired: r.Expired}
}

type paymentView struct {
	ID             types.ID  `json:"id"`
	BookingID      types.ID  `json:"booking_id"`
	Amount         moneyView `json:"amount"`
	TransactionRef string    `json:"transaction_ref"`
	ProviderRef    string    `json:"provider_ref,omitempty"`
	Status         string    `json:"status"`
	Method         string    `json:"payment_method"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func paymentJSON(p *payment.Payment) paymentView {
	return paymentView{
		ID:             p.ID,
		BookingID:      p.BookingID,
		Amount:         money(p.Amount),
		TransactionRef: p.TransactionRef,
		ProviderRef:    p.ProviderRef,
		Status:         string(p.Status),
		Method:         p.Method,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

type verificationView struct {
	Outcome             string    `json:"status"`
	TransactionRef      string    `json:"transaction_ref"`
	ProviderRef         string    `json:"interswitch_ref,omitempty"`
	Amount              moneyView `json:"amount"`
	ResponseCode        string    `json:"response_code,omitempty"`
	ResponseDescription string    `json:"response_description,omitempty"`
	Verified            bool      `json:"verified"`
	Error               string    `json:"error,omitempty"`
}

func verificationJSON(v *payment.Verification) verificationView {
	return verificationView{
		Outcome:             string(v.Outcome),
		TransactionRef:      v.TransactionRef,
		ProviderRef:         v.ProviderRef,
		Amount:              money(v.Amount),
		ResponseCode:        v.ResponseCode,
		ResponseDescription: v.ResponseDescription,
		Verified:            v.Verified,
		Error:               v.Error,
	}
}

type profileView struct {
	ID    types.ID `json:"id"`
	Name  string   `json:"full_name"`
	Phone string   `json:"phone"`
	Role  string   `json:"role"`
}

func profileJSON(p *user.Profile) profileView {
	return profileView{ID: p.ID, Name: p.Name, Phone: p.Phone, Role: string(p.Role)}
}
