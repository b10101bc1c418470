package types

import "testing"

func TestFromMajorRoundsToKobo(t *testing.T) {
	cases := []struct {
		in   float64
		want int64
	}{
		{1500.00, 150000},
		{1500.5, 150050},
		{0.1 + 0.2, 30},
		{19.999, 2000},
	}
	for _, tc := range cases {
		if got := FromMajor(tc.in, "").Amount; got != tc.want {
			t.Errorf("FromMajor(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestMoneyTimes(t *testing.T) {
	price := FromMajor(1500, CurrencyNGN)
	total := price.Times(2)
	if total.Amount != 300000 || total.Major() != 3000 {
		t.Fatalf("unexpected total %v", total)
	}
	if total.String() != "3000.00 NGN" {
		t.Fatalf("unexpected string %q", total.String())
	}
}

func TestIDShort(t *testing.T) {
	id := ID("1234567890")
	if id.Short(8) != "12345678" {
		t.Fatalf("short = %q", id.Short(8))
	}
	if ID("abc").Short(8) != "abc" {
		t.Fatal("short id should be returned unchanged")
	}
}
