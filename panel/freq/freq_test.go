package freq

import (
	"errors"
	"testing"
)

func TestDigits(t *testing.T) {
	f := Frequency{0x12, 0x34, 0x56}
	for i := 0; i < Digits; i++ {
		if got := f.Digit(i); got != uint8(i+1) {
			t.Fatalf("Digit(%d) = %d, want %d", i, got, i+1)
		}
	}

	g := f.SetDigit(0, 9).SetDigit(5, 0)
	if g != (Frequency{0x92, 0x34, 0x50}) {
		t.Fatalf("SetDigit = % x, want 92 34 50", g)
	}
	if f != (Frequency{0x12, 0x34, 0x56}) {
		t.Fatalf("SetDigit modified receiver: % x", f)
	}
}

func TestString(t *testing.T) {
	cases := []struct {
		f    Frequency
		want string
	}{
		{Frequency{0x12, 0x34, 0x56}, "12.345.6"},
		{Frequency{0x00, 0x00, 0x10}, "00.001.0"},
		{Frequency{0xFF, 0xFF, 0xFF}, "FF.FFF.F"},
	}
	for _, tc := range cases {
		if got := tc.f.String(); got != tc.want {
			t.Fatalf("String(% x) = %q, want %q", tc.f, got, tc.want)
		}
	}
}

func TestParse(t *testing.T) {
	for _, s := range []string{"123456", "12.345.6"} {
		f, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		if f != (Frequency{0x12, 0x34, 0x56}) {
			t.Fatalf("Parse(%q) = % x, want 12 34 56", s, f)
		}
	}

	for _, s := range []string{"", "12345", "1234567", "12a456", "-12345"} {
		if _, err := Parse(s); !errors.Is(err, ErrSyntax) {
			t.Fatalf("Parse(%q) err = %v, want ErrSyntax", s, err)
		}
	}
}

func TestValid(t *testing.T) {
	if !(Frequency{0x09, 0x99, 0x00}).Valid() {
		t.Fatal("Valid() = false for BCD value")
	}
	if (Frequency{0x0A, 0x00, 0x00}).Valid() {
		t.Fatal("Valid() = true for 0x0A digit")
	}
}
