package billing

import (
	"errors"
	"testing"
)

func TestParseBillCSV_FullUpload(t *testing.T) {
	raw := []byte("patient_id,patient_name,patient_phone,mrn,doctor,name,qty,price\n" +
		"PT-ABC1234567,Asha Verma,9876500001,MRN-42,Dr Rao,Consultation,1,500\n" +
		",,,,,Paracetamol,2,25.50\n")

	got, err := ParseBillCSV(raw)
	if err != nil {
		t.Fatalf("ParseBillCSV: %v", err)
	}
	if got.PatientID != "PT-ABC1234567" {
		t.Errorf("patient_id = %q", got.PatientID)
	}
	if got.Meta.Name != "Asha Verma" || got.Meta.Phone != "9876500001" ||
		got.Meta.MRN != "MRN-42" || got.Meta.Doctor != "Dr Rao" {
		t.Errorf("meta mismatch: %+v", got.Meta)
	}
	if len(got.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got.Items))
	}
	if got.Items[1].Name != "Paracetamol" || got.Items[1].Qty != 2 || got.Items[1].Price != 25.50 {
		t.Errorf("item mismatch: %+v", got.Items[1])
	}
}

func TestParseBillCSV_MetaFirstNonEmptyWins(t *testing.T) {
	raw := []byte("name,qty,price,patient_name\n" +
		"Gauze,1,10,\n" +
		"Mask,1,5,First\n" +
		"Glove,1,2,Second\n")

	got, err := ParseBillCSV(raw)
	if err != nil {
		t.Fatalf("ParseBillCSV: %v", err)
	}
	if got.Meta.Name != "First" {
		t.Errorf("expected first non-empty name to win, got %q", got.Meta.Name)
	}
}

func TestParseBillCSV_SkipsBOM(t *testing.T) {
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte("name,qty,price\nGauze,1,10\n")...)
	got, err := ParseBillCSV(raw)
	if err != nil {
		t.Fatalf("ParseBillCSV: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].Name != "Gauze" {
		t.Errorf("BOM upload parsed wrong: %+v", got.Items)
	}
}

func TestParseBillCSV_ItemHeaderAlias(t *testing.T) {
	got, err := ParseBillCSV([]byte("item,qty,price\nGauze,3,12\n"))
	if err != nil {
		t.Fatalf("ParseBillCSV: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].Qty != 3 {
		t.Errorf("item alias parse wrong: %+v", got.Items)
	}
}

func TestParseBillCSV_Defaults(t *testing.T) {
	got, err := ParseBillCSV([]byte("name\nConsultation\n"))
	if err != nil {
		t.Fatalf("ParseBillCSV: %v", err)
	}
	item := got.Items[0]
	if item.Qty != 1 || item.Price != 0 {
		t.Errorf("expected qty 1 price 0, got %+v", item)
	}
}

func TestParseBillCSV_BadEncoding(t *testing.T) {
	_, err := ParseBillCSV([]byte{0xFF, 0xFE, 'n', 'a', 'm', 'e'})
	if !errors.Is(err, ErrBadEncoding) {
		t.Errorf("expected ErrBadEncoding, got %v", err)
	}
}

func TestParseBillCSV_BadRowFailsWholeUpload(t *testing.T) {
	raw := []byte("name,qty,price\n" +
		"Gauze,1,10\n" +
		"Mask,two,5\n")
	_, err := ParseBillCSV(raw)
	if !errors.Is(err, ErrBadRow) {
		t.Errorf("expected ErrBadRow, got %v", err)
	}

	raw = []byte("name,qty,price\nGauze,1,abc\n")
	if _, err := ParseBillCSV(raw); !errors.Is(err, ErrBadRow) {
		t.Errorf("bad price: expected ErrBadRow, got %v", err)
	}

	raw = []byte("name,qty,price\nGauze,0,10\n")
	if _, err := ParseBillCSV(raw); !errors.Is(err, ErrBadRow) {
		t.Errorf("zero qty: expected ErrBadRow, got %v", err)
	}
}

func TestParseBillCSV_NoItems(t *testing.T) {
	if _, err := ParseBillCSV(nil); !errors.Is(err, ErrNoItems) {
		t.Errorf("empty upload: expected ErrNoItems, got %v", err)
	}
	if _, err := ParseBillCSV([]byte("name,qty,price\n")); !errors.Is(err, ErrNoItems) {
		t.Errorf("header only: expected ErrNoItems, got %v", err)
	}
	// Metadata-only rows carry no billable items.
	raw := []byte("patient_name,name,qty,price\nAsha,,,\n")
	if _, err := ParseBillCSV(raw); !errors.Is(err, ErrNoItems) {
		t.Errorf("metadata only: expected ErrNoItems, got %v", err)
	}
}

func TestParseBillCSV_IgnoresUnknownColumns(t *testing.T) {
	raw := []byte("ward,name,qty,price,notes\nA1,Gauze,1,10,urgent\n")
	got, err := ParseBillCSV(raw)
	if err != nil {
		t.Fatalf("ParseBillCSV: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].Name != "Gauze" {
		t.Errorf("unexpected parse: %+v", got.Items)
	}
}
