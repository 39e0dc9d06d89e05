package validate

import (
	"math"
	"testing"
)

func TestEmail(t *testing.T) {
	cases := map[string]bool{
		"dana@example.com":            true,
		"  dana+pets@example.co.uk  ": true,
		"dana@example":                false,
		"not-an-email":                false,
		"":                            false,
		"a@" + longString(100) + ".com": false,
	}
	for in, want := range cases {
		if _, ok := Email(in); ok != want {
			t.Errorf("Email(%q) = %v, want %v", in, ok, want)
		}
	}
}

func TestPhone(t *testing.T) {
	cases := map[string]bool{
		"5550102030":        true,
		"+1 (555) 010-2030": true,
		"555.0102":          true,
		"12345":             false,
		"1234567890123456":  false,
		"call me maybe":     false,
	}
	for in, want := range cases {
		if _, ok := Phone(in); ok != want {
			t.Errorf("Phone(%q) = %v, want %v", in, ok, want)
		}
	}
}

func TestPrice(t *testing.T) {
	if f, ok := Price(" 12.50 "); !ok || f != 12.5 {
		t.Fatalf("Price(12.50) = %v, %v", f, ok)
	}
	if f, ok := Price("0"); !ok || f != 0 {
		t.Fatalf("zero is a valid price, got %v, %v", f, ok)
	}
	for _, bad := range []string{"", "-1", "free", "NaN", "Inf"} {
		if _, ok := Price(bad); ok {
			t.Errorf("Price(%q) accepted", bad)
		}
	}
	if NonNegative(math.Inf(1)) || NonNegative(math.NaN()) || NonNegative(-0.01) {
		t.Fatal("NonNegative accepted an unusable amount")
	}
}

func TestNameIDOneOfInt(t *testing.T) {
	if n, ok := Name("  Reptiles "); !ok || n != "Reptiles" {
		t.Fatalf("Name trimmed = %q, %v", n, ok)
	}
	if _, ok := Name(longString(101)); ok {
		t.Fatal("Name accepted 101 characters")
	}
	if _, ok := ID("cat_01-a"); !ok {
		t.Fatal("ID rejected a plain id")
	}
	if _, ok := ID("../etc"); ok {
		t.Fatal("ID accepted a path")
	}
	if s, ok := OneOf(" New ", []string{"New", "Processed"}); !ok || s != "New" {
		t.Fatalf("OneOf = %q, %v", s, ok)
	}
	if _, ok := OneOf("new", []string{"New"}); ok {
		t.Fatal("OneOf is case sensitive")
	}
	if Int("7", 0) != 7 || Int("x", 3) != 3 {
		t.Fatal("Int fallback broken")
	}
}

func longString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'a'
	}
	return string(b)
}
