// README: Driver-facing trip and vehicle handlers.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"openseat/internal/modules/booking"
	"openseat/internal/modules/trip"
	"openseat/internal/types"
)

type TripHandler struct {
	trips    *trip.Service
	bookings *booking.Service
}

func NewTripHandler(trips *trip.Service, bookings *booking.Service) *TripHandler {
	return &TripHandler{trips: trips, bookings: bookings}
}

type vehicleReq struct {
	Make        string `json:"make"`
	Model       string `json:"model"`
	Color       string `json:"color"`
	PlateNumber string `json:"plate_number"`
	TotalSeats  int    `json:"total_seats"`
}

// RegisterVehicle handles POST /api/vehicles.
func (h *TripHandler) RegisterVehicle(c *gin.Context) {
	var req vehicleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	v, err := h.trips.RegisterVehicle(c.Request.Context(), trip.VehicleCommand{
		DriverID:    caller(c),
		Make:        strings.TrimSpace(req.Make),
		Model:       strings.TrimSpace(req.Model),
		Color:       strings.TrimSpace(req.Color),
		PlateNumber: strings.TrimSpace(req.PlateNumber),
		TotalSeats:  req.TotalSeats,
	})
	if err != nil {
		writeAppError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, vehicleJSON(v))
}

type createTripReq struct {
	VehicleID     string   `json:"vehicle_id"`
	StartLocation string   `json:"start_location"`
	EndLocation   string   `json:"end_location"`
	Stops         []string `json:"stops"`
	DepartureDate string   `json:"departure_date"`
	DepartureTime string   `json:"departure_time"`
	Seats         int      `json:"available_seats"`
	PricePerSeat  float64  `json:"price_per_seat"`
}

// Create handles POST /api/trips.
func (h *TripHandler) Create(c *gin.Context) {
	var req createTripReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if !isValidID(req.VehicleID) || req.DepartureDate == "" {
		writeError(c, http.StatusBadRequest, "missing vehicle or departure date")
		return
	}
	date, err := parseDate(req.DepartureDate)
	if err != nil {
		writeAppError(c, err)
		return
	}
	t, err := h.trips.Create(c.Request.Context(), trip.CreateCommand{
		DriverID:      caller(c),
		VehicleID:     types.ID(req.VehicleID),
		StartLocation: strings.TrimSpace(req.StartLocation),
		EndLocation:   strings.TrimSpace(req.EndLocation),
		Stops:         req.Stops,
		DepartureDate: *date,
		DepartureTime: req.DepartureTime,
		Seats:         req.Seats,
		PricePerSeat:  types.FromMajor(req.PricePerSeat, types.CurrencyNGN),
	})
	if err != nil {
		writeAppError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, tripJSON(t))
}

// Get handles GET /api/trips/:id.
func (h *TripHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	t, err := h.trips.Get(c.Request.Context(), id)
	if err != nil {
		writeAppError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, tripJSON(t))
}

// ListMine handles GET /api/trips.
func (h *TripHandler) ListMine(c *gin.Context) {
	trips, err := h.trips.ListByDriver(c.Request.Context(), caller(c))
	if err != nil {
		writeAppError(c, err)
		return
	}
	out := make([]tripView, 0, len(trips))
	for _, t := range trips {
		out = append(out, tripJSON(t))
	}
	writeJSON(c, http.StatusOK, out)
}

type updateTripReq struct {
	PricePerSeat *float64 `json:"price_per_seat"`
	TotalSeats   *int     `json:"total_seats"`
	Status       *string  `json:"status"`
}

// Update handles PATCH /api/trips/:id.
func (h *TripHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateTripReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	cmd := trip.UpdateCommand{TripID: id, DriverID: caller(c), TotalSeats: req.TotalSeats}
	if req.PricePerSeat != nil {
		p := types.FromMajor(*req.PricePerSeat, types.CurrencyNGN)
		cmd.PricePerSeat = &p
	}
	if req.Status != nil {
		s := trip.Status(strings.ToUpper(*req.Status))
		cmd.Status = &s
	}
	t, err := h.trips.Update(c.Request.Context(), cmd)
	if err != nil {
		writeAppError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, tripJSON(t))
}

// Delete handles DELETE /api/trips/:id. Trips with bookings are cancelled instead.
func (h *TripHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	deleted, err := h.trips.DeleteOrCancel(c.Request.Context(), id, caller(c))
	if err != nil {
		writeAppError(c, err)
		return
	}
	if deleted {
		writeJSON(c, http.StatusOK, gin.H{"message": "Route deleted successfully"})
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"message": "Route has bookings and was cancelled instead", "status": trip.StatusCancelled})
}

// Bookings handles GET /api/trips/:id/bookings.
func (h *TripHandler) Bookings(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := h.bookings.ListTrip(c.Request.Context(), id, caller(c))
	if err != nil {
		writeAppError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, bookingsJSON(list))
}

// DriverProfile handles GET /api/drivers/:id/profile.
func (h *TripHandler) DriverProfile(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.trips.DriverProfile(c.Request.Context(), id)
	if err != nil {
		writeAppError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"driver_id": p.DriverID, "rating": p.Rating, "rating_count": p.RatingCount})
}
