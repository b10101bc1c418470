// README: End-to-end tests of the gin router over in-memory services.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"openseat/internal/config"
	"openseat/internal/infra"
	"openseat/internal/modules/booking"
	"openseat/internal/modules/geo"
	"openseat/internal/modules/matching"
	"openseat/internal/modules/payment"
	"openseat/internal/modules/token"
	"openseat/internal/modules/trip"
	"openseat/internal/modules/user"
	"openseat/internal/types"
)

var testNow = time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)

const macKey = "TESTMAC"

// bearerVerifier treats the bearer token as "<uid>" or "<uid>:<role>".
type bearerVerifier struct{}

func (bearerVerifier) VerifyIDToken(_ context.Context, raw string) (*infra.Identity, error) {
	if raw == "bad" {
		return nil, errors.New("bad token")
	}
	uid, role, _ := strings.Cut(raw, ":")
	return infra.IdentityFromClaims(uid, map[string]interface{}{"role": role}), nil
}

type env struct {
	router *gin.Engine
	gwCode string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	e := &env{gwCode: "00"}

	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"ResponseCode": e.gwCode, "PaymentReference": "FBN|1", "Amount": 300000})
	}))
	t.Cleanup(gw.Close)

	clock := types.NewFixedClock(testNow)
	tripStore := trip.NewMemoryStore(clock)
	bookingStore := booking.NewMemoryStore(tripStore)
	tripStore.SetBookingProbe(bookingStore.HasTrip)

	trips := trip.NewService(tripStore, clock, nil)
	users := user.NewService(user.NewMemoryStore(), clock, nil)
	tokens := token.NewService(token.NewMemoryStore(), config.TokenConfig{}, clock, nil)
	bookings := booking.NewService(booking.Deps{Store: bookingStore, Trips: trips, Tokens: tokens, Users: users, Clock: clock})
	isw := payment.NewInterswitch(config.InterswitchConfig{
		MerchantCode: "MX1", PayItemID: "ITEM1", MACKey: macKey,
		PayURL: "https://pay.example/pay", VerifyURL: gw.URL, RedirectURL: "https://app.example/cb", Mode: "TEST",
	})

	e.router = NewRouter(RouterDeps{
		Trips:       trips,
		Search:      matching.NewService(trips, matching.NewRanker(geo.DefaultLagos(), 0), nil),
		Bookings:    bookings,
		Tokens:      tokens,
		Payments:    payment.NewService(payment.NewMemoryStore(), bookings, isw, users, clock, nil),
		Users:       users,
		Verifier:    bearerVerifier{},
		CORSOrigins: []string{"http://localhost:3000"},
	})
	return e
}

func (e *env) do(t *testing.T, method, path, auth string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", "Bearer "+auth)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func (e *env) must(t *testing.T, want int, method, path, auth string, body any) map[string]any {
	t.Helper()
	w, out := e.do(t, method, path, auth, body)
	if w.Code != want {
		t.Fatalf("%s %s: status %d, want %d: %s", method, path, w.Code, want, w.Body.String())
	}
	return out
}

const (
	driverAuth = "driver-1:driver"
	riderAuth  = "rider-1"
)

func (e *env) publishTrip(t *testing.T) string {
	t.Helper()
	v := e.must(t, http.StatusCreated, http.MethodPost, "/api/vehicles", driverAuth, map[string]any{
		"make": "Toyota", "model": "Corolla", "color": "Black", "plate_number": "LND-123", "total_seats": 4,
	})
	tr := e.must(t, http.StatusCreated, http.MethodPost, "/api/trips", driverAuth, map[string]any{
		"vehicle_id": v["id"], "start_location": "Ikeja", "end_location": "Victoria Island",
		"stops": []string{"Ikeja", "Maryland", "Victoria Island"}, "departure_date": "2026-03-02",
		"departure_time": "08:00", "available_seats": 3, "price_per_seat": 1500,
	})
	return tr["id"].(string)
}

func TestHealthAndAuth(t *testing.T) {
	e := newEnv(t)
	if w, _ := e.do(t, http.MethodGet, "/health", "", nil); w.Code != http.StatusOK {
		t.Fatalf("health=%d", w.Code)
	}
	if w, _ := e.do(t, http.MethodGet, "/api/bookings", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token=%d", w.Code)
	}
	if w, _ := e.do(t, http.MethodGet, "/api/bookings", "bad", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token=%d", w.Code)
	}
	if w, _ := e.do(t, http.MethodPost, "/api/trips", riderAuth, map[string]any{}); w.Code != http.StatusForbidden {
		t.Fatalf("rider creating trip=%d", w.Code)
	}
}

func TestBookPayBoardFlow(t *testing.T) {
	e := newEnv(t)
	e.must(t, http.StatusOK, http.MethodPut, "/api/me", riderAuth, map[string]any{"full_name": "Ada Obi", "phone": "+234800"})
	tripID := e.publishTrip(t)

	res := e.must(t, http.StatusOK, http.MethodGet, "/api/search?from=Ikeja&to=Victoria%20Island&preferred_time=08:00", "", nil)
	if res["count"].(float64) != 1 {
		t.Fatalf("search count=%v", res["count"])
	}
	first := res["results"].([]any)[0].(map[string]any)
	if first["confidence"] != "high" {
		t.Fatalf("confidence=%v", first["confidence"])
	}

	b := e.must(t, http.StatusCreated, http.MethodPost, "/api/bookings", riderAuth, map[string]any{"route_id": tripID, "seats_booked": 2})
	bookingID := b["id"].(string)
	if b["status"] != "PENDING" || b["total_amount"].(map[string]any)["amount"].(float64) != 3000 {
		t.Fatalf("booking %v", b)
	}

	e.must(t, http.StatusBadRequest, http.MethodPost, "/api/payments/initiate", riderAuth, map[string]any{"booking_id": bookingID, "amount": 100})
	in := e.must(t, http.StatusCreated, http.MethodPost, "/api/payments/initiate", riderAuth, map[string]any{"booking_id": bookingID, "amount": 3000})
	ref := in["payment"].(map[string]any)["transaction_ref"].(string)

	e.must(t, http.StatusOK, http.MethodPost, "/api/payments/callback", "", map[string]any{"txnref": ref})

	got := e.must(t, http.StatusOK, http.MethodGet, "/api/bookings/"+bookingID, riderAuth, nil)
	if got["status"] != "CONFIRMED" || got["rider_name"] != "Ada Obi" {
		t.Fatalf("after payment %v", got)
	}
	tok := e.must(t, http.StatusOK, http.MethodGet, "/api/bookings/"+bookingID+"/token", riderAuth, nil)
	if !strings.HasPrefix(tok["token_id"].(string), "SEAT-") {
		t.Fatalf("token %v", tok)
	}

	scan := e.must(t, http.StatusOK, http.MethodGet, "/api/bookings/"+bookingID+"/verify", driverAuth, nil)
	if scan["verification"].(map[string]any)["verified"] != true {
		t.Fatalf("scan %v", scan)
	}
	vt := e.must(t, http.StatusOK, http.MethodPost, "/api/bookings/"+bookingID+"/verify-token", driverAuth, map[string]any{"qr_data": tok["qr_data"]})
	if vt["verified"] != true {
		t.Fatalf("verify-token %v", vt)
	}

	e.must(t, http.StatusOK, http.MethodPost, "/api/bookings/"+bookingID+"/redeem", driverAuth, nil)
	w, out := e.do(t, http.MethodPost, "/api/bookings/"+bookingID+"/redeem", driverAuth, nil)
	if w.Code != http.StatusBadRequest || out["error"] != "Token already redeemed" {
		t.Fatalf("second redeem %d %v", w.Code, out)
	}

	tr := e.must(t, http.StatusOK, http.MethodGet, "/api/trips/"+tripID, "", nil)
	if tr["available_seats"].(float64) != 1 {
		t.Fatalf("available=%v", tr["available_seats"])
	}
}

func TestErrorMapping(t *testing.T) {
	e := newEnv(t)
	tripID := e.publishTrip(t)

	if w, _ := e.do(t, http.MethodGet, "/api/trips/does-not-exist", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("missing trip=%d", w.Code)
	}
	if w, _ := e.do(t, http.MethodGet, "/api/trips/bad%20id", "", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid id=%d", w.Code)
	}
	w, out := e.do(t, http.MethodPost, "/api/bookings", riderAuth, map[string]any{"route_id": tripID, "seats_booked": 5})
	if w.Code != http.StatusBadRequest || out["error"] != "Only 3 seats available" {
		t.Fatalf("overbook %d %v", w.Code, out)
	}
	if w, _ := e.do(t, http.MethodPost, "/api/bookings", driverAuth, map[string]any{"route_id": tripID, "seats_booked": 1}); w.Code != http.StatusBadRequest {
		t.Fatalf("own route=%d", w.Code)
	}

	b := e.must(t, http.StatusCreated, http.MethodPost, "/api/bookings", riderAuth, map[string]any{"route_id": tripID, "seats_booked": 1})
	id := b["id"].(string)
	if w, _ := e.do(t, http.MethodGet, "/api/bookings/"+id, "stranger", nil); w.Code != http.StatusForbidden {
		t.Fatalf("stranger view=%d", w.Code)
	}
	if w, _ := e.do(t, http.MethodPost, "/api/bookings/"+id+"/cancel", driverAuth, nil); w.Code != http.StatusForbidden {
		t.Fatalf("driver cancel=%d", w.Code)
	}
	e.must(t, http.StatusOK, http.MethodPost, "/api/bookings/"+id+"/cancel", riderAuth, nil)

	del := e.must(t, http.StatusOK, http.MethodDelete, "/api/trips/"+tripID, driverAuth, nil)
	if del["status"] != "CANCELLED" {
		t.Fatalf("trip with bookings must be cancelled: %v", del)
	}
}

func TestWebhookSignature(t *testing.T) {
	e := newEnv(t)
	tripID := e.publishTrip(t)
	b := e.must(t, http.StatusCreated, http.MethodPost, "/api/bookings", riderAuth, map[string]any{"route_id": tripID, "seats_booked": 2})
	in := e.must(t, http.StatusCreated, http.MethodPost, "/api/payments/initiate", riderAuth, map[string]any{"booking_id": b["id"], "amount": 3000})
	ref := in["payment"].(map[string]any)["transaction_ref"].(string)

	send := func(sig string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(map[string]any{"transaction_ref": ref, "ResponseCode": "00", "amount": 300000})
		req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Interswitch-Signature", sig)
		w := httptest.NewRecorder()
		e.router.ServeHTTP(w, req)
		return w
	}
	if w := send("forged"); w.Code != http.StatusForbidden {
		t.Fatalf("forged=%d", w.Code)
	}
	if w := send(payment.WebhookSignature("MX1", ref, 300000, macKey)); w.Code != http.StatusOK {
		t.Fatalf("signed=%d %s", w.Code, w.Body.String())
	}
	p := e.must(t, http.StatusOK, http.MethodGet, "/api/payments/booking/"+b["id"].(string), riderAuth, nil)
	if p["status"] != "successful" {
		t.Fatalf("payment %v", p)
	}
}

func TestCORSPreflight(t *testing.T) {
	e := newEnv(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/bookings", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("allow-origin=%q", got)
	}
}
