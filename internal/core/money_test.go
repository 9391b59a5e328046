package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"1", 1, true},
		{"1.0", 1, true},
		{"1.23", 1.23, true},
		{"1,23", 1.23, true},
		{"12,5", 12.5, true},
		{"1,234", 1234, true},
		{"1,234.50", 1234.5, true},
		{"150,000", 150000, true},
		{"1,000,000", 1000000, true},
		{"₱1,234", 1234, true},
		{"-1,234", -1234, true},
		{"12,3456", 0, false},
		{"1,2,3", 0, false},
		{"1,23.4", 0, false},
		{"1.234,5", 0, false},
		{" 2.50 ", 2.5, true},
		{"-5", -5, true},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"NaN", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestFormatAmount(t *testing.T) {
	cases := map[float64]string{
		0:         "₱0",
		500:       "₱500",
		147500:    "₱147,500",
		1234.5:    "₱1,234.5",
		1000000.1: "₱1,000,000.1",
		-2500:     "-₱2,500",
	}
	for in, want := range cases {
		if got := FormatAmount(in); got != want {
			t.Fatalf("FormatAmount(%v) = %q, want %q", in, got, want)
		}
	}
}
