// README: Canonical booking payload hashing, token id derivation, QR and explorer helpers.
package token

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"openseat/internal/apperr"
)

// canonicalPayload serializes the booking facts with sorted keys and
// ", " / ": " separators so digests stay stable across producers.
func canonicalPayload(s Subject, issuedAt time.Time, network, version string) []byte {
	fields := map[string]string{
		"amount":     formatAmount(s.Amount.Major()),
		"booking_id": quote(string(s.BookingID)),
		"network":    quote(network),
		"rider_id":   quote(string(s.RiderID)),
		"route_id":   quote(string(s.TripID)),
		"timestamp":  quote(isoTimestamp(issuedAt)),
		"version":    quote(version),
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b bytes.Buffer
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quote(k))
		b.WriteString(": ")
		b.WriteString(fields[k])
	}
	b.WriteByte('}')
	return b.Bytes()
}

func bookingHash(s Subject, issuedAt time.Time, network, version string) string {
	sum := sha256.Sum256(canonicalPayload(s, issuedAt, network, version))
	return hex.EncodeToString(sum[:])
}

func tokenID(s Subject, hash string) string {
	return fmt.Sprintf("%s-%s-%s", idPrefix, s.BookingID.Short(8), hash[:8])
}

// formatAmount renders a float the way a round-trip repr does: integral values keep ".0".
func formatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// isoTimestamp formats a naive UTC timestamp, adding microseconds only when non-zero.
func isoTimestamp(t time.Time) string {
	t = t.UTC()
	s := t.Format("2006-01-02T15:04:05")
	if us := t.Nanosecond() / 1000; us != 0 {
		s += fmt.Sprintf(".%06d", us)
	}
	return s
}

func quote(s string) string {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimRight(b.String(), "\n")
}

func buildQR(t *Token, platform string) (string, error) {
	b, err := json.Marshal(QRPayload{
		TokenID:   t.ID,
		BookingID: string(t.BookingID),
		Timestamp: t.IssuedAt.Unix(),
		Hash:      t.BookingHash[:16],
		Platform:  platform,
		Version:   t.Version,
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ParseQR decodes a scanned payload; tokenId, bookingId and timestamp are required.
func ParseQR(payload string) (QRPayload, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return QRPayload{}, apperr.BadRequest("Invalid QR payload")
	}
	for _, k := range []string{"tokenId", "bookingId", "timestamp"} {
		if _, ok := raw[k]; !ok {
			return QRPayload{}, apperr.BadRequest("Invalid QR payload: missing %s", k)
		}
	}
	var p QRPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return QRPayload{}, apperr.BadRequest("Invalid QR payload")
	}
	return p, nil
}

// ExplorerURL links a settlement reference to a block explorer for the given network.
func ExplorerURL(txHash, network string) string {
	switch network {
	case "mumbai":
		return "https://mumbai.polygonscan.com/tx/" + txHash
	case "polygon":
		return "https://polygonscan.com/tx/" + txHash
	default:
		return "https://demo.openseat.com/explorer/tx/" + txHash
	}
}

// splitID checks the SEAT-<booking8>-<hash8> shape and returns its two variable segments.
func splitID(id string) (string, string, error) {
	if !strings.HasPrefix(id, idPrefix+"-") {
		return "", "", apperr.BadRequest("Invalid token format")
	}
	parts := strings.Split(id, "-")
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return "", "", apperr.BadRequest("Malformed token ID")
	}
	return parts[1], parts[2], nil
}
