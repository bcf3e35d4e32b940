package billing

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/meditrack/meditrack/internal/domain/inventory"
	"github.com/meditrack/meditrack/internal/domain/patient"
	"github.com/meditrack/meditrack/pkg/ident"
)

// PatientRegistry is the slice of the patient service the assembler needs.
type PatientRegistry interface {
	Exists(ctx context.Context, patientID string) (bool, error)
	Create(ctx context.Context, p *patient.Patient) error
}

// Ledger folds billed items into the inventory ledger.
type Ledger interface {
	ApplyInflow(ctx context.Context, lines []inventory.Inflow) error
}

type Service struct {
	bills    Repository
	patients PatientRegistry
	ledger   Ledger
	taxRate  float64
	log      zerolog.Logger
}

func NewService(bills Repository, patients PatientRegistry, ledger Ledger, taxRate float64, log zerolog.Logger) *Service {
	return &Service{bills: bills, patients: patients, ledger: ledger, taxRate: taxRate, log: log}
}

// Assemble validates a bill submission, resolves or registers its patient,
// computes totals, persists the bill and folds the items into the inventory
// ledger. The ledger update is best effort: the bill is already durable, so
// a ledger failure is logged and the bill still reported as created.
func (s *Service) Assemble(ctx context.Context, patientRef string, items []LineItem, meta *PatientMeta) (*Bill, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	for i, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			return nil, fmt.Errorf("%w: item %d has no name", ErrBadRow, i+1)
		}
		if item.Qty < 1 {
			return nil, fmt.Errorf("%w: item %q has quantity %d", ErrBadRow, item.Name, item.Qty)
		}
		if item.Price < 0 {
			return nil, fmt.Errorf("%w: item %q has negative price", ErrBadRow, item.Name)
		}
	}

	patientID, err := s.resolvePatient(ctx, patientRef, meta)
	if err != nil {
		return nil, err
	}

	var subtotal float64
	for _, item := range items {
		subtotal += float64(item.Qty) * item.Price
	}
	subtotal = round2(subtotal)
	tax := round2(subtotal * s.taxRate)

	bill := &Bill{
		BillID:    ident.NewBillID(),
		PatientID: patientID,
		Items:     items,
		Subtotal:  subtotal,
		Tax:       tax,
		Total:     round2(subtotal + tax),
		CreatedAt: time.Now().UTC(),
	}
	if meta != nil {
		bill.PatientName = meta.Name
		bill.PatientPhone = meta.Phone
		bill.MRN = meta.MRN
		bill.Doctor = meta.Doctor
	}
	if err := s.bills.Create(ctx, bill); err != nil {
		return nil, err
	}

	inflows := make([]inventory.Inflow, 0, len(items))
	for _, item := range items {
		inflows = append(inflows, inventory.Inflow{Name: item.Name, Qty: item.Qty, Price: item.Price})
	}
	if err := s.ledger.ApplyInflow(ctx, inflows); err != nil {
		s.log.Error().Err(err).Str("bill_id", bill.BillID).Msg("inventory update failed after bill creation")
	}
	return bill, nil
}

// resolvePatient returns the patient id the bill belongs to. An empty
// reference registers a new patient from the upload metadata.
func (s *Service) resolvePatient(ctx context.Context, patientRef string, meta *PatientMeta) (string, error) {
	patientRef = strings.TrimSpace(patientRef)
	if patientRef != "" {
		ok, err := s.patients.Exists(ctx, patientRef)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownPatient, patientRef)
		}
		return patientRef, nil
	}
	if meta == nil || strings.TrimSpace(meta.Name) == "" {
		return "", ErrMissingPatientInfo
	}
	p := &patient.Patient{
		PatientID: ident.NewPatientID(),
		Name:      meta.Name,
		Phone:     meta.Phone,
		MRN:       meta.MRN,
		Doctor:    meta.Doctor,
	}
	if err := s.patients.Create(ctx, p); err != nil {
		return "", err
	}
	return p.PatientID, nil
}

func (s *Service) GetBill(ctx context.Context, billID string) (*Bill, error) {
	return s.bills.GetByBillID(ctx, billID)
}

func (s *Service) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Bill, int, error) {
	return s.bills.ListByPatient(ctx, patientID, limit, offset)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
