package billing

import (
	"errors"
	"time"
)

var (
	// ErrNoItems is returned when a bill submission carries no line items.
	ErrNoItems = errors.New("bill has no items")
	// ErrMissingPatientInfo is returned when neither a patient reference
	// nor enough metadata to register one was supplied.
	ErrMissingPatientInfo = errors.New("missing patient information")
	// ErrUnknownPatient is returned when the referenced patient id is not
	// registered.
	ErrUnknownPatient = errors.New("unknown patient")
	// ErrBadEncoding is returned for uploads that are not valid UTF-8.
	ErrBadEncoding = errors.New("upload is not valid utf-8")
	// ErrBadRow is returned when a line item or CSV row fails validation.
	ErrBadRow = errors.New("bad row")
)

// LineItem is one billed item. Qty must be at least 1 and Price must not
// be negative.
type LineItem struct {
	Name  string  `json:"name"`
	Qty   int     `json:"qty"`
	Price float64 `json:"price"`
}

// Bill is a finalized bill. Subtotal, Tax and Total are always computed
// server-side from the items; values supplied by callers are discarded.
type Bill struct {
	BillID       string     `json:"bill_id"`
	PatientID    string     `json:"patient_id"`
	PatientName  string     `json:"patient_name,omitempty"`
	PatientPhone string     `json:"patient_phone,omitempty"`
	MRN          string     `json:"mrn,omitempty"`
	Doctor       string     `json:"doctor,omitempty"`
	Items        []LineItem `json:"items"`
	Subtotal     float64    `json:"subtotal"`
	Tax          float64    `json:"tax"`
	Total        float64    `json:"total"`
	CreatedAt    time.Time  `json:"created_at,omitempty"`
}

// PatientMeta carries patient details captured from an upload. When a bill
// arrives without a patient reference these are used to register one.
type PatientMeta struct {
	Name   string `json:"patient_name,omitempty"`
	Phone  string `json:"patient_phone,omitempty"`
	MRN    string `json:"mrn,omitempty"`
	Doctor string `json:"doctor,omitempty"`
}

// CSVBill is the normalized result of parsing an uploaded bill CSV.
type CSVBill struct {
	PatientID string
	Meta      PatientMeta
	Items     []LineItem
}
