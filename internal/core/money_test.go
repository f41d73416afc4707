package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"$1,234.56", 123456, true},
		{"-$20.00", 2000, true},
		{"(7.50)", 750, true},
		{"0", 0, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half away from zero
		{" 2.50 ", 250, true},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"$", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyFloatAndString(t *testing.T) {
	m := Money{Cents: 123456}
	if got := m.Float(); got != 1234.56 {
		t.Fatalf("Float: got %v", got)
	}
	if got := m.String(); got != "1234.56" {
		t.Fatalf("String: got %q", got)
	}
	if got := (Money{}).String(); got != "0.00" {
		t.Fatalf("zero String: got %q", got)
	}
}
