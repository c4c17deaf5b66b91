package persistence

import "testing"

// SavePosition/LoadPositions require a live Postgres instance and are
// exercised by integration tests run outside this module. These cover the
// pure decimal conversion helpers that protect monetary fields from float64
// rounding drift.
func TestDecimalPtrRoundTrip(t *testing.T) {
	f := 42.125
	d := toDecimalPtr(&f)
	got := fromDecimalPtr(d)
	if got == nil || *got != f {
		t.Fatalf("expected %v, got %v", f, got)
	}
}

func TestDecimalPtrNilRoundTrip(t *testing.T) {
	if toDecimalPtr(nil) != nil {
		t.Fatal("expected nil decimal for nil input")
	}
	if fromDecimalPtr(nil) != nil {
		t.Fatal("expected nil float for nil decimal")
	}
}

func TestDefaultUserIDConstant(t *testing.T) {
	if DefaultUserID == "" {
		t.Fatal("expected non-empty default user id")
	}
}
