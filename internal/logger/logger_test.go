package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestNewWritesRenamedKeys(t *testing.T) {
	var buf bytes.Buffer
	log := Action(New("debug", &buf), "confirm_booking")
	log.Info("booking confirmed", "booking_id", "b1", Err(errors.New("x")))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v (%s)", err, buf.String())
	}
	if rec["message"] != "booking confirmed" {
		t.Errorf("message = %v", rec["message"])
	}
	if _, ok := rec["timestamp"]; !ok {
		t.Error("missing timestamp")
	}
	if rec["action"] != "confirm_booking" || rec["booking_id"] != "b1" {
		t.Errorf("unexpected attrs: %v", rec)
	}
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := New("error", &buf)
	log.Info("ignored")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at error level: %s", buf.String())
	}
}

func TestOrDiscardNil(t *testing.T) {
	OrDiscard(nil).Info("no panic")
}
