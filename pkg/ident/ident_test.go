package ident

import "testing"

func TestNewPatientID_Format(t *testing.T) {
	id := NewPatientID()
	if !PatientIDPattern.MatchString(id) {
		t.Errorf("patient id %q does not match documented format", id)
	}
}

func TestNewBillID_Format(t *testing.T) {
	id := NewBillID()
	if !BillIDPattern.MatchString(id) {
		t.Errorf("bill id %q does not match documented format", id)
	}
}

func TestNewPatientID_NoCollisions(t *testing.T) {
	seen := make(map[string]bool, 10000)
	for i := 0; i < 10000; i++ {
		id := NewPatientID()
		if seen[id] {
			t.Fatalf("collision after %d generations: %s", i, id)
		}
		seen[id] = true
	}
}

func TestNewBillID_NoCollisions(t *testing.T) {
	seen := make(map[string]bool, 10000)
	for i := 0; i < 10000; i++ {
		id := NewBillID()
		if seen[id] {
			t.Fatalf("collision after %d generations: %s", i, id)
		}
		seen[id] = true
	}
}
